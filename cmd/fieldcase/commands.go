package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/benmeehan/fieldcase/internal/capture"
	"github.com/benmeehan/fieldcase/internal/imaging"
	"github.com/benmeehan/fieldcase/internal/layout"
	"github.com/benmeehan/fieldcase/internal/mapview"
	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/internal/prompt"
	"github.com/benmeehan/fieldcase/internal/services"
)

// CreateCommand creates a case from flags.
type CreateCommand struct {
	app *App

	Name         string `long:"name"          required:"true" description:"Customer name"`
	ContactNo    string `long:"contact"       required:"true" description:"Contact number"`
	City         string `long:"city"          required:"true" description:"City"`
	Route        string `long:"route"                         description:"Route"`
	Valuer       string `long:"valuer"        required:"true" description:"Valuer code, a single letter"`
	Branch       string `long:"branch"        required:"true" description:"Bank branch"`
	Address      string `long:"address"       required:"true" description:"Property address"`
	ReceivedDate string `long:"received-date"                 description:"Case received date, YYYY-MM-DD (default today)"`
	Remarks      string `long:"remarks"                       description:"Remarks"`
}

func (c *CreateCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}

	svc := services.NewCaseService(store, c.app.logger)
	newCase := svc.NewCase()
	newCase.Name = c.Name
	newCase.ContactNo = c.ContactNo
	newCase.City = c.City
	newCase.Route = c.Route
	newCase.Valuer = c.Valuer
	newCase.Branch = c.Branch
	newCase.Address = c.Address
	newCase.Remarks = c.Remarks
	if c.ReceivedDate != "" {
		newCase.CaseReceivedDate = c.ReceivedDate
	}

	created, err := svc.CreateCase(c.app.ctx, newCase)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", created.ID, created.CaseNo)
	return nil
}

// CaptureCommand captures the property location of a case.
type CaptureCommand struct {
	app *App

	CaseID  string `long:"case"     required:"true" description:"Case id"`
	OpenMap bool   `long:"open-map"                 description:"Open the map after saving"`
}

func (c *CaptureCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}
	provider, err := c.app.LocationProvider()
	if err != nil {
		return err
	}
	publisher, err := c.app.EventPublisher()
	if err != nil {
		return err
	}

	cfg := c.app.config.Location
	svc := services.NewCaptureService(
		store,
		provider,
		cfg.Sampler,
		prompt.NewTerminal(os.Stdin, os.Stderr),
		publisher,
		mapview.NewBrowserViewer(c.app.logger),
		cfg.OpenMapOnCommit || c.OpenMap,
		c.app.logger,
	)

	outcome, err := svc.CaptureCaseLocation(c.app.ctx, c.CaseID, prompt.NewProgressPrinter(os.Stderr))
	if errors.Is(err, capture.ErrNoFixAcquired) {
		fmt.Fprintln(os.Stderr, "Unable to capture location. Please check GPS permissions and try again.")
		return err
	}
	if err != nil {
		return err
	}

	if outcome.Committed() {
		fmt.Println(outcome.DisplayText)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Location not changed (%s)\n", outcome.Reason)
	return nil
}

// MapCommand opens the stored location of a case.
type MapCommand struct {
	app *App

	CaseID string `long:"case" required:"true" description:"Case id"`
}

func (c *MapCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}

	svc := services.NewCaptureService(store, nil, c.app.config.Location.Sampler, nil, nil,
		mapview.NewBrowserViewer(c.app.logger), false, c.app.logger)
	return svc.OpenCaseMap(c.app.ctx, c.CaseID)
}

// UploadCommand uploads images to a case.
type UploadCommand struct {
	app *App

	CaseID string `long:"case" required:"true" description:"Case id"`
	Kind   string `long:"kind" default:"property" choice:"property" choice:"documents" description:"Image list to append to"`
	Raw    bool   `long:"raw"  description:"Upload files unchanged instead of cropping to 1200x900 JPEG"`

	Args struct {
		Files []string `positional-arg-name:"FILES" required:"1"`
	} `positional-args:"yes"`
}

func (c *UploadCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}
	host, err := c.app.ImageHost()
	if err != nil {
		return err
	}

	files := make([]services.ImageFile, 0, len(c.Args.Files))
	for _, name := range c.Args.Files {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, services.ImageFile{
			Name:        filepath.Base(name),
			Content:     f,
			Size:        info.Size(),
			ContentType: contentType,
		})
	}

	var processor services.ImageProcessor
	if !c.Raw {
		processor = imaging.NewNormalizer()
	}

	svc := services.NewImageService(store, host, processor, c.app.logger)
	urls, err := svc.AddImages(c.app.ctx, c.CaseID, services.ImageKind(c.Kind), files)
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	return nil
}

// PagesCommand prints the A4 pagination of a case's images.
type PagesCommand struct {
	app *App

	CaseID string `long:"case" required:"true" description:"Case id"`
	Mode   string `long:"mode" default:"property" choice:"property" choice:"documents" description:"Image list to paginate"`
}

func (c *PagesCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}

	caseRecord, err := services.NewCaseService(store, c.app.logger).LoadCase(c.app.ctx, c.CaseID)
	if err != nil {
		return err
	}
	pages, err := layout.Paginate(caseRecord, layout.Mode(c.Mode))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pages)
}

// ListCommand prints cases newest first.
type ListCommand struct {
	app *App

	Filter string `long:"filter" default:"pendingReport" choice:"pendingReport" choice:"paymentPending" choice:"thisMonth" choice:"all" description:"Case filter"`
	Search string `long:"search" description:"Match case no, name, contact, branch, city or valuer"`
}

func (c *ListCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}

	cases, err := services.NewCaseService(store, c.app.logger).
		ListCases(c.app.ctx, models.CaseFilter(c.Filter), c.Search)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stderr, "No matching cases")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CASE NO\tNAME\tBRANCH\tCITY\tSTATUS\tID")
	for _, cs := range cases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", cs.CaseNo, cs.Name, cs.Branch, cs.City, cs.Status, cs.ID)
	}
	return w.Flush()
}

// SubmitCommand records the report submission date of a case.
type SubmitCommand struct {
	app *App

	CaseID string `long:"case" required:"true" description:"Case id"`
	Date   string `long:"date" description:"Report submitted date, YYYY-MM-DD. Empty reopens the case"`
}

func (c *SubmitCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}

	return services.NewCaseService(store, c.app.logger).SubmitReport(c.app.ctx, c.CaseID, c.Date)
}

// RemoveImageCommand deletes one image of a case.
type RemoveImageCommand struct {
	app *App

	CaseID string `long:"case"  required:"true" description:"Case id"`
	Kind   string `long:"kind"  default:"property" choice:"property" choice:"documents" description:"Image list to remove from"`
	Index  int    `long:"index" required:"true" description:"Zero based position of the image in the list"`
}

func (c *RemoveImageCommand) Execute(_ []string) error {
	if err := c.app.Setup(); err != nil {
		return err
	}
	store, err := c.app.CaseStore()
	if err != nil {
		return err
	}
	host, err := c.app.ImageHost()
	if err != nil {
		return err
	}

	svc := services.NewImageService(store, host, nil, c.app.logger)
	return svc.RemoveImage(c.app.ctx, c.CaseID, services.ImageKind(c.Kind), c.Index)
}
