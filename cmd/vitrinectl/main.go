// vitrinectl is the operations companion for the Vitrine server. It handles
// backup and restore of the catalog database and uploaded photos.
package main

import (
	"fmt"
	"os"

	"github.com/avolkov/vitrine/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, `vitrinectl - Vitrine catalog maintenance tool

Usage:
  vitrinectl <command> [flags]

Commands:
  backup     Create a tar.gz backup of the database and uploads
  restore    Restore a backup archive
  version    Print version information

Run 'vitrinectl <command> -h' for command-specific flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "backup":
		runBackup(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "version":
		fmt.Println(version.Info())
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}
