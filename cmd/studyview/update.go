package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/studyview/studyview/internal/config"
	"github.com/studyview/studyview/internal/update"
)

// runUpdate reports whether a newer release exists. Installation
// is manual: the command prints the download URL.
func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	force := fs.Bool("force", false,
		"Force check (ignore cache)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: studyview update [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	dataDir, err := config.ResolveDataDir()
	if err != nil {
		log.Fatalf("resolving data dir: %v", err)
	}

	checker := update.NewChecker(dataDir)
	info, err := checker.Check(version, *force)
	if err != nil {
		log.Fatalf("checking for updates: %v", err)
	}

	if info == nil {
		fmt.Printf("studyview %s is up to date.\n", version)
		return
	}

	if info.IsDevBuild {
		fmt.Printf("Running dev build (%s). Latest release: %s\n",
			info.CurrentVersion, info.LatestVersion)
	} else {
		fmt.Printf("Update available: %s -> %s",
			info.CurrentVersion, info.LatestVersion)
		if info.Size > 0 {
			fmt.Printf(" (%s)", update.FormatSize(info.Size))
		}
		fmt.Println()
	}

	if info.DownloadURL != "" {
		fmt.Printf("Download: %s\n", info.DownloadURL)
		if info.Checksum != "" {
			fmt.Printf("SHA256:   %s\n", info.Checksum)
		}
	} else if info.FromCache() {
		fmt.Println("Run with -force for download details.")
	}
}
