package main

import (
	"os"

	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/joelanford/ngsi-client-go/cmd/ngsictl/cmd"
	"github.com/joelanford/ngsi-client-go/cmd/ngsictl/internal/output"
)

func main() {
	if err := cmd.Execute(signals.SetupSignalHandler()); err != nil {
		output.Error(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
