// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"runtime"

	"github.com/neorest/go-neorest/driver"
)

const indexTmpl = `<!DOCTYPE html>
<html>
<head><title>cypherbench</title></head>
<body>
<h1>cypherbench</h1>
<p>Driver {{driverversion}} Server {{serverversion}} GOMAXPROCS {{gomaxprocs}} NumCPU {{numcpu}} {{goos}}/{{goarch}}</p>
<h2>Flags</h2>
<ul>
{{- range .Flags}}
<li>{{.Name}}: {{.Value}}</li>
{{- end}}
</ul>
<h2>Load tests</h2>
<table border="1">
<tr><th>Workers x Statements</th><th>Sequential</th><th>Concurrent</th></tr>
{{- range .TestDefs}}
<tr><td>{{.Descr}}</td><td><a href="{{.SequentialLink}}">run</a></td><td><a href="{{.ConcurrentLink}}">run</a></td></tr>
{{- end}}
</table>
<h2>Database</h2>
<ul>
{{- range .Commands}}
<li><a href="{{.Link}}">{{.Command}}</a></li>
{{- end}}
</ul>
</body>
</html>
`

type indexTestDef struct {
	Descr          string
	SequentialLink string
	ConcurrentLink string
}

type indexCommandDef struct {
	Command string
	Link    string
}

type indexData struct {
	Flags    []*flag.Flag
	TestDefs []*indexTestDef
	Commands []*indexCommandDef
}

// indexHandler implements the http.Handler interface for the html index page.
type indexHandler struct {
	tmpl *template.Template
	data *indexData
}

func newIndexTestDef(workers, statements int) *indexTestDef {
	return &indexTestDef{
		Descr:          fmt.Sprintf("%d x %d", workers, statements),
		SequentialLink: fmt.Sprintf("test?sequential=t&workers=%d&statements=%d", workers, statements),
		ConcurrentLink: fmt.Sprintf("test?sequential=f&workers=%d&statements=%d", workers, statements),
	}
}

// newIndexHandler returns a new IndexHandler instance.
func newIndexHandler(dba *dba) (*indexHandler, error) {
	funcMap := template.FuncMap{
		"gomaxprocs":    func() int { return runtime.GOMAXPROCS(0) },
		"numcpu":        runtime.NumCPU,
		"driverversion": func() string { return driver.DriverVersion },
		"serverversion": dba.serverVersion,
		"goos":          func() string { return runtime.GOOS },
		"goarch":        func() string { return runtime.GOARCH },
	}

	tmpl, err := template.New("index").Funcs(funcMap).Parse(indexTmpl)
	if err != nil {
		return nil, err
	}

	indexTestDefs := []*indexTestDef{}
	for _, prm := range parameters {
		indexTestDefs = append(indexTestDefs, newIndexTestDef(prm.Workers, prm.Statements))
	}

	commands := []*indexCommandDef{
		{Command: "countNodes", Link: fmt.Sprintf("db?command=%s", cmdCountNodes)},
		{Command: "deleteNodes", Link: fmt.Sprintf("db?command=%s", cmdDeleteNodes)},
		{Command: "serverInfo", Link: fmt.Sprintf("db?command=%s", cmdServerInfo)},
	}

	data := &indexData{
		Flags:    flags(),
		TestDefs: indexTestDefs,
		Commands: commands,
	}
	return &indexHandler{tmpl: tmpl, data: data}, nil
}

func (h *indexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.tmpl.Execute(w, h.data) //nolint: errcheck
}
