// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// npucascade compiles a network, described in a YAML file, into a cascaded command stream.
//
// Usage:
//
//	npucascade [flags] network.yaml
//
// It writes into -out the binary command stream (<name>.bin), its XML form (<name>.xml), the
// binding table (<name>_binding_table.xml) and the constant data (<name>_constant_dma.bin and
// <name>_constant_control_unit.bin).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/compiler"
	"github.com/gomlx/npucascade/pkg/netdesc"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/support/fsutil"
	"github.com/gomlx/npucascade/ui/commandline"
)

var (
	flagOut      = flag.String("out", ".", "Directory where to write the compiled network.")
	flagEstimate = flag.Bool("estimate", false, "Only estimate the performance of the network, don't lower it "+
		"into a command stream. Networks with estimate-only operations can only be estimated.")
	flagBase = flag.Uint64("base", 0, "DRAM address of the first buffer in the binding table.")
	flagPlot = flag.String("plot_lifetimes", "", "If set, save a plot of the intermediate DRAM buffers "+
		"lifetimes to the given file. Its extension selects the format, e.g. \".png\" or \".svg\".")
	flagProgress = flag.Bool("progress", true, "Display a progress bar while the combiner runs.")
	flagReport   = flag.Bool("report", true, "Print a report of the compilation.")
	flagSettings = options.CreateSettingsFlag("")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] network.yaml\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		klog.Errorf("Expected exactly one network description file, got %d. See 'npucascade -help'.", flag.NArg())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, flag.Arg(0), os.Stdout); err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
}

// run compiles the network at networkPath according to the flags.
func run(ctx context.Context, networkPath string, stdout io.Writer) error {
	net, err := netdesc.Load(networkPath)
	if err != nil {
		return err
	}
	caps, err := net.Capabilities()
	if err != nil {
		return err
	}
	g, err := net.Build()
	if err != nil {
		return err
	}

	c := compiler.New(caps)
	for _, settings := range []string{net.Settings, *flagSettings} {
		paramsSet, err := options.ParseSettings(&c.Options, &c.Estimation, settings)
		if err != nil {
			return errors.WithMessagef(err, "parsing settings %q", settings)
		}
		if klog.V(1).Enabled() && len(paramsSet) > 0 {
			klog.Infof("settings set: %v", paramsSet)
		}
	}

	var pBar *commandline.ProgressBar
	if *flagProgress {
		pBar = commandline.AttachProgressBar(c)
	}
	var result *compiler.Result
	if *flagEstimate {
		result, err = c.Estimate(ctx, g)
	} else {
		result, err = c.Compile(ctx, g)
	}
	if pBar != nil {
		pBar.Done()
	}
	if err != nil {
		return err
	}

	if *flagReport {
		if err = commandline.Report(stdout, result); err != nil {
			return err
		}
	}
	if result.Network == nil {
		return nil
	}
	if err = writeNetwork(result, *flagOut, net.Name, *flagBase); err != nil {
		return err
	}
	if *flagPlot != "" {
		return commandline.PlotBufferLifetimes(result.Network, *flagPlot)
	}
	return nil
}

// writeNetwork writes the files of the compiled network into dir.
func writeNetwork(result *compiler.Result, dir, name string, base uint64) error {
	dir, err := fsutil.EnsureDir(dir)
	if err != nil {
		return err
	}
	network := result.Network
	bindingTable, err := network.Buffers.BindingTable(base)
	if err != nil {
		return err
	}
	files := []struct {
		suffix string
		write  func(w io.Writer) error
	}{
		{".bin", network.WriteBinary},
		{".xml", network.WriteXML},
		{"_binding_table.xml", bindingTable.WriteXML},
		{"_constant_dma.bin", writeBytes(network.ConstantDmaData)},
		{"_constant_control_unit.bin", writeBytes(network.ConstantControlUnitData)},
	}
	for _, file := range files {
		f, err := fsutil.CreateFileIn(dir, name+file.suffix)
		if err != nil {
			return err
		}
		err = file.write(f)
		must.M(f.Close())
		if err != nil {
			return errors.WithMessagef(err, "writing %q", f.Name())
		}
		if klog.V(1).Enabled() {
			klog.Infof("wrote %q", f.Name())
		}
	}
	return nil
}

func writeBytes(data []byte) func(w io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}
