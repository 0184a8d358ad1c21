package main

import (
	"fmt"
	"os"

	"github.com/dvloznov/auto-journal/internal/logger"
)

// Process exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 2
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitFailure)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runJournal(log, os.Args[2:]))
	case "extract":
		os.Exit(runExtract(log, os.Args[2:]))
	case "normalize":
		runNormalize(os.Stdout, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(exitFailure)
	}
}

func printUsage() {
	fmt.Println("Auto Journal")
	fmt.Println("\nUsage:")
	fmt.Println("  journal <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run        Read sheet, bank CSV and receipts, categorize, and write journal/BS/PL sheets")
	fmt.Println("  extract    OCR a receipts folder and print the extracted rows")
	fmt.Println("  normalize  Normalize category labels given as arguments")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nExit codes: 0 success, 1 failure, 2 completed with skipped or unclassified rows.")
	fmt.Println("\nRun 'journal <command> -h' for more information on a command.")
}
