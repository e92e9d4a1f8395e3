package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/sirupsen/logrus"

	"github.com/sunlightlabs/cluster-explorer/clusterdb"
	"github.com/sunlightlabs/cluster-explorer/edgefile"
	"github.com/sunlightlabs/cluster-explorer/partition"
)

var (
	app      = kingpin.New("cluster-explorer", "record clustering tool")
	logLevel = app.Flag("log-level", "log level").Envar("CLUSTER_LOG_LEVEL").
			Default("info").Enum("debug", "info", "warn", "error")
)

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(*logLevel)
	if err == nil {
		log.SetLevel(level)
	}
	return log
}

var (
	countCmd  = app.Command("count", "count pairs in an edge file")
	countPath = countCmd.Arg("path", "edge file path").Required().String()
)

func countFn() error {
	r, err := edgefile.Open(*countPath)
	if err != nil {
		return err
	}
	fmt.Println("pairs", r.Len())
	return nil
}

var (
	encodeCmd     = app.Command("encode", "convert text pairs to an edge file")
	encodePath    = encodeCmd.Arg("path", "text pairs path").Required().String()
	encodeOutpath = encodeCmd.Arg("outpath", "edge file output path").Required().String()
)

func encodeFn() error {
	pairs, err := readPairs(*encodePath)
	if err != nil {
		return err
	}
	err = edgefile.WriteFile(*encodeOutpath, pairs)
	if err != nil {
		return err
	}
	fmt.Println("written", len(pairs))
	return nil
}

var (
	mergeCmd      = app.Command("merge", "cluster identifiers from edge files")
	mergeUniverse = mergeCmd.Arg("universe", "identifiers path, one per line").
			Required().String()
	mergeEdges = mergeCmd.Arg("edges", "edge file paths").Required().Strings()
	mergeSkip  = mergeCmd.Flag("skip-unknown", "skip edges with unknown identifiers").
			Envar("CLUSTER_SKIP_UNKNOWN").Bool()
	mergeDb  = mergeCmd.Flag("db", "output cluster DB path").String()
	mergeTop = mergeCmd.Flag("top", "print the largest clusters").Default("0").Int()
)

func mergeFn() error {
	log := newLogger()
	start := time.Now()
	values, err := readUniverse(*mergeUniverse)
	if err != nil {
		return err
	}
	p, err := partition.New(values)
	if err != nil {
		return err
	}
	defer p.Close()
	log.WithField("identifiers", p.Len()).Info("universe loaded")

	opts := partition.IngestOptions{
		OnUnknown: partition.AbortOnUnknown,
		Logger:    log,
	}
	if *mergeSkip {
		opts.OnUnknown = partition.SkipUnknown
	}
	for _, path := range *mergeEdges {
		stats, err := p.MergeFile(path, opts)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"file":    path,
			"pairs":   stats.Pairs,
			"merged":  stats.Merged,
			"skipped": stats.Skipped,
		}).Info("merged")
	}

	sets := p.Sets()
	fmt.Println("identifiers", p.Len())
	fmt.Println("clusters", len(sets))
	for i, set := range sets {
		if i >= *mergeTop {
			break
		}
		fmt.Printf("%d: %d members\n", set[0], len(set))
	}
	if *mergeDb != "" {
		db, err := clusterdb.Open(*mergeDb)
		if err != nil {
			return err
		}
		defer db.Close()
		err = db.Store(p)
		if err != nil {
			return err
		}
		log.WithField("db", *mergeDb).Info("clusters stored")
	}
	duration := time.Since(start) / time.Second
	fmt.Printf("done in %ds\n", duration)
	return nil
}

var (
	groupCmd = app.Command("group", "print the cluster of an identifier")
	groupDb  = groupCmd.Arg("db", "cluster DB path").Required().String()
	groupId  = groupCmd.Arg("id", "identifier").Required().String()
)

func groupFn() error {
	id, err := strconv.ParseInt(*groupId, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid identifier: %s", err)
	}
	db, err := clusterdb.Open(*groupDb)
	if err != nil {
		return err
	}
	defer db.Close()
	rep, err := db.Representative(int32(id))
	if err != nil {
		return err
	}
	members, err := db.Cluster(rep)
	if err != nil {
		return err
	}
	fmt.Println("representative", rep)
	for _, m := range members {
		fmt.Println(m)
	}
	return nil
}

func dispatch() error {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	switch cmd {
	case countCmd.FullCommand():
		return countFn()
	case encodeCmd.FullCommand():
		return encodeFn()
	case mergeCmd.FullCommand():
		return mergeFn()
	case groupCmd.FullCommand():
		return groupFn()
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func main() {
	err := dispatch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
