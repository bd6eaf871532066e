package proxy

import (
	"context"
	"io"
	"net"
	"testing"
)

// fakeSocks5 answers the version/method selection and the connect request
// of a single SOCKS5 handshake.
func fakeSocks5(t *testing.T, conn net.Conn, method authMethod) {
	buf := make([]byte, 512)

	// version/method selection
	if _, err := io.ReadFull(conn, buf[:2]); err != nil {
		t.Error(err)
		return
	}
	numMethods := int(buf[1])
	if _, err := io.ReadFull(conn, buf[:numMethods]); err != nil {
		t.Error(err)
		return
	}
	if _, err := conn.Write([]byte{version5, byte(method)}); err != nil {
		t.Error(err)
		return
	}

	if method == authBasic {
		if _, err := io.ReadFull(conn, buf[:2]); err != nil {
			t.Error(err)
			return
		}
		ulen := int(buf[1])
		if _, err := io.ReadFull(conn, buf[:ulen+1]); err != nil {
			t.Error(err)
			return
		}
		plen := int(buf[ulen])
		if _, err := io.ReadFull(conn, buf[:plen]); err != nil {
			t.Error(err)
			return
		}
		if _, err := conn.Write([]byte{authBasicVersion, authReplySuccess}); err != nil {
			t.Error(err)
			return
		}
	}

	// connect request: VER CMD RSV ATYP
	if _, err := io.ReadFull(conn, buf[:4]); err != nil {
		t.Error(err)
		return
	}
	if buf[3] != addrTypeFQDN {
		t.Errorf("address type %d - expected %d", buf[3], addrTypeFQDN)
		return
	}
	if _, err := io.ReadFull(conn, buf[:1]); err != nil {
		t.Error(err)
		return
	}
	addrLen := int(buf[0])
	if _, err := io.ReadFull(conn, buf[:addrLen+2]); err != nil { // DST.ADDR + DST.PORT
		t.Error(err)
		return
	}
	// reply: succeeded, bound to 0.0.0.0:0
	if _, err := conn.Write([]byte{version5, byte(replySucceeded), 0, addrTypeIPv4, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Error(err)
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	d := NewDialer(&Config{Address: "proxy:1080"})
	go fakeSocks5(t, server, authNotRequired)

	if err := d.connect(context.Background(), client, "example.com:7474"); err != nil {
		t.Fatal(err)
	}
}

func TestConnectBasicAuth(t *testing.T) {
	t.Parallel()

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	d := NewDialer(&Config{Address: "proxy:1080", Username: "myuser", Password: "mypassword"})
	go fakeSocks5(t, server, authBasic)

	if err := d.connect(context.Background(), client, "example.com:7474"); err != nil {
		t.Fatal(err)
	}
}

func TestSplitHostPort(t *testing.T) {
	t.Parallel()

	host, port, err := splitHostPort("localhost:7474")
	if err != nil {
		t.Fatal(err)
	}
	if host != "localhost" || port != 7474 {
		t.Fatalf("got %s:%d - expected localhost:7474", host, port)
	}
	if _, _, err := splitHostPort("localhost:99999"); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, _, err := splitHostPort("localhost"); err == nil {
		t.Fatal("expected missing port error")
	}
}
