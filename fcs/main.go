package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/folio/cmd"
)

func main() {
	// Shell completion: when invoked by the shell's completion hook, Complete
	// prints candidates and exits; otherwise it is a no-op.
	complete.Complete("fcs", &complete.Command{
		Sub: map[string]*complete.Command{
			"buy":      {Flags: map[string]complete.Predictor{"s": predict.Nothing, "q": predict.Nothing, "p": predict.Nothing, "f": predict.Nothing, "d": predict.Nothing, "m": predict.Nothing}},
			"sell":     {Flags: map[string]complete.Predictor{"s": predict.Nothing, "q": predict.Nothing, "p": predict.Nothing, "f": predict.Nothing, "d": predict.Nothing, "m": predict.Nothing}},
			"log":      {Flags: map[string]complete.Predictor{"head": predict.Nothing, "tail": predict.Nothing}},
			"import":   {Args: predict.Files("*.csv")},
			"export":   {Flags: map[string]complete.Predictor{"o": predict.Files("*.csv")}},
			"scan":     {Args: predict.Files("*"), Flags: map[string]complete.Predictor{"model": predict.Nothing}},
			"pending":  {},
			"confirm":  {},
			"reject":   {},
			"position": {Flags: map[string]complete.Predictor{"d": predict.Nothing}},
			"snapshot": {Flags: map[string]complete.Predictor{"w": predict.Set{"7d", "30d", "1y", "all"}}},
			"summary":  {},
		},
	})

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
