// Command shogi-usi is the engine's USI front end: it wires together the
// search manager, time manager, opening book and persisted option store
// and drives them from stdin/stdout. Grounded on the teacher's
// cmd/chessplay-uci/main.go (flag-based bootstrap, log.Printf lifecycle
// messages) and internal/uci/uci.go (the bufio.Scanner command loop this
// file's Run method mirrors).
package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB      = flag.Int("hash", 256, "transposition table size in MB")
	threads     = flag.Int("threads", 0, "search threads (0 = runtime.NumCPU())")
	bookPath    = flag.String("book", "", "opening book file")
	clusterMode = flag.String("cluster", "", `"tree" or "consultation" to delegate go to child engines`)
	childPaths  = flag.String("children", "", "comma-separated child engine binary paths (first is master)")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("[main] CPU profiling enabled, writing to %s", profilePath)
	}

	n := *threads
	if n <= 0 {
		n = runtime.NumCPU()
	}

	eng, err := NewEngine(n, *hashMB, *bookPath)
	if err != nil {
		log.Fatalf("[main] engine init failed: %v", err)
	}
	defer eng.Close()

	if *clusterMode != "" {
		if err := eng.ConfigureCoordinator(*clusterMode, *childPaths); err != nil {
			log.Fatalf("[main] coordinator init failed: %v", err)
		}
	}

	eng.Run()
}
