package main

import (
	"flag"
	"os"
	"runtime/pprof"

	log "github.com/sirupsen/logrus"

	"github.com/kalmera/pointsto"
	"github.com/kalmera/pointsto/irload"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var debug = flag.Bool("debug", false, "log extracted rule codes")

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("Specify one or more module files on the command line")
	}

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatal("Failed to close ", f.Name())
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	for _, path := range flag.Args() {
		mod, err := irload.LoadModuleFromFile(path)
		if err != nil {
			log.Fatalf("Loading %s failed: %v", path, err)
		}

		log.Infof("Loaded %s: %d globals, %d functions",
			path, len(mod.Globals), len(mod.Funcs))

		res := pointsto.Analyze(pointsto.AnalysisConfig{Module: mod})

		log.Infof("Computed %d points-to sets", len(res.Sets))

		if err := res.Dump(os.Stdout); err != nil {
			log.Fatalf("Dumping results failed: %v", err)
		}
	}
}
