package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
	"github.com/sarchlab/dflow/report"
)

func TestPrintPortStateRendersNameAndValue(t *testing.T) {
	c := component.New(func(payload.Dict) payload.Dict {
		return payload.Dict{"out": payload.Of(99)}
	}, component.WithName("emit"))
	if err := c.MakeOutPort("out"); err != nil {
		t.Fatal(err)
	}
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	c.Expose()

	var buf bytes.Buffer
	report.PrintPortState(&buf, 3, []report.PortSnapshot{
		{Name: "emit", OutPorts: []string{"out"}, Component: c},
	})

	out := buf.String()
	if !strings.Contains(out, "emit") || !strings.Contains(out, "99") {
		t.Fatalf("report missing expected content:\n%s", out)
	}
}

func TestPrintPortStateRendersEmptySentinel(t *testing.T) {
	c := component.New(func(payload.Dict) payload.Dict { return nil }, component.WithName("idle"))
	if err := c.MakeOutPort("out"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	report.PrintPortState(&buf, 0, []report.PortSnapshot{
		{Name: "idle", OutPorts: []string{"out"}, Component: c},
	})

	if !strings.Contains(buf.String(), "∅") {
		t.Fatalf("expected empty sentinel in output:\n%s", buf.String())
	}
}
