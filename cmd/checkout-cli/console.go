package main

import (
	"fmt"
	"io"

	"checkout-flow-api/checkout"
)

// consoleView prints the parts of the state that changed since the last render.
type consoleView struct {
	out  io.Writer
	last checkout.State
}

func (v *consoleView) Render(s checkout.State) {
	if s.Method != v.last.Method {
		fmt.Fprintf(v.out, "method: %s\n", s.Method)
	}
	if s.Status != "" && s.Status != v.last.Status {
		fmt.Fprintf(v.out, "status: %s\n", s.Status)
	}
	if s.Error != "" && s.Error != v.last.Error {
		fmt.Fprintf(v.out, "error: %s\n", s.Error)
	}
	if s.Success != "" && s.Success != v.last.Success {
		fmt.Fprintln(v.out, s.Success)
	}
	if s.PayLabel != v.last.PayLabel && s.PayLabel == checkout.ProcessingLabel {
		fmt.Fprintln(v.out, s.PayLabel)
	}
	v.last = s
}

type printNavigator struct {
	out io.Writer
}

func (n *printNavigator) Navigate(url string) {
	fmt.Fprintf(n.out, "open: %s\n", url)
}
