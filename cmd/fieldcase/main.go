package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigFile string `short:"c" long:"config"     env:"FIELDCASE_CONFIG"     description:"Path to configuration file" default:"configs/config.yaml"`
	LogLevel   string `short:"l" long:"log-level"  env:"FIELDCASE_LOG_LEVEL"  description:"Override log level"`
	LogFormat  string `long:"log-format"           env:"FIELDCASE_LOG_FORMAT" description:"Override log format" choice:"console" choice:"json"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts Options
	app := &App{opts: &opts, ctx: ctx}

	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("create", "Create a case", "Create a new case and allocate its case number.", &CreateCommand{app: app})
	parser.AddCommand("capture", "Capture property location", "Run an accurate multi-reading capture for a case.", &CaptureCommand{app: app})
	parser.AddCommand("map", "Open case map", "Open the stored property location in a satellite map.", &MapCommand{app: app})
	parser.AddCommand("upload", "Upload case images", "Upload property photos or documents for a case.", &UploadCommand{app: app})
	parser.AddCommand("list", "List cases", "List cases newest first, with an optional filter and search.", &ListCommand{app: app})
	parser.AddCommand("submit", "Record report submission", "Set the report submitted date of a case. An empty date reopens it.", &SubmitCommand{app: app})
	parser.AddCommand("remove-image", "Remove a case image", "Delete an image from the image host and from the case.", &RemoveImageCommand{app: app})
	parser.AddCommand("pages", "Paginate case images", "Print the A4 pages of property photos or documents as JSON.", &PagesCommand{app: app})

	_, err := parser.Parse()
	app.Close()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
