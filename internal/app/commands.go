package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	kafka_impl "filedeck/internal/broker/kafka"
	"filedeck/internal/config"
	"filedeck/internal/domain"
	"filedeck/internal/inspect"
	"filedeck/internal/usecase/catalog"
	"filedeck/internal/usecase/tools"
	"filedeck/internal/usecase/upload"

	"github.com/dustin/go-humanize"
	"github.com/wb-go/wbf/zlog"
)

var ErrOperationFailed = errors.New("operation failed")

type env struct {
	cfg     *config.Config
	session *Session
	out     io.Writer
	logger  *zlog.Zerolog
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"list":         {"list files in the catalog", runList},
	"info":         {"show one file and its metadata", runInfo},
	"upload":       {"upload one file", runUpload},
	"upload-batch": {"upload several files one after another", runUploadBatch},
	"delete":       {"delete one file", runDelete},
	"delete-batch": {"delete several files (--all for the whole catalog)", runDeleteBatch},
	"convert":      {"convert an image (--format jpeg|png|webp)", runConvert},
	"compress":     {"compress an image (--quality 1-100)", runCompress},
	"resize":       {"resize an image (--width, --height)", runResize},
	"crop":         {"crop an image (--x, --y, --width, --height)", runCrop},
	"extract-text": {"extract text from a PDF", runExtractText},
	"download":     {"download the stored original", runDownload},
	"stats":        {"show catalog statistics and duplicates", runStats},
	"duplicates":   {"show duplicate groups", runDuplicates},
	"activity":     {"follow the activity topic", runActivity},
}

func runList(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("list", e.out)
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}

	res := e.session.Catalog.FetchAll(ctx)
	if res.Err != nil {
		fmt.Fprintln(e.out, res.Status)
		fmt.Fprintln(e.out, "Run the command again to retry.")
		return fmt.Errorf("%w: %v", ErrOperationFailed, res.Err)
	}

	printFiles(e.out, res.Files)
	return nil
}

func runInfo(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("info", e.out)
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "ID:       %s\n", record.ID)
	fmt.Fprintf(e.out, "Name:     %s\n", record.OriginalFilename)
	fmt.Fprintf(e.out, "Type:     %s\n", record.MimeType)
	fmt.Fprintf(e.out, "Size:     %s\n", domain.FormatBytes(record.Size.Int64()))
	fmt.Fprintf(e.out, "Created:  %s (%s)\n", record.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(record.CreatedAt))

	fields := record.Metadata.Fields()
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(e.out, "Metadata:")
	for _, k := range keys {
		fmt.Fprintf(e.out, "  %s: %v\n", k, fields[k])
	}
	return nil
}

func runUpload(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("upload", e.out)
	path, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	info, err := inspect.FromPath(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Uploading %s (%s, %s%s)\n", info.Name, info.MimeType, domain.FormatBytes(info.Size), dims(info))

	uploads := e.session.Uploads
	if err := uploads.SelectSingle(info.Source()); err != nil {
		return err
	}

	res := uploads.Run(ctx)
	fmt.Fprintln(e.out, res.Message)
	if err := uploads.WaitIdle(ctx); err != nil {
		return err
	}

	if res.State != domain.UploadSuccess {
		return fmt.Errorf("%w: %v", ErrOperationFailed, res.Err)
	}
	fmt.Fprintf(e.out, "Catalog now holds %d file(s)\n", len(e.session.Catalog.Snapshot()))
	return nil
}

func runUploadBatch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("upload-batch", e.out)
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: at least one path is required", ErrUsage)
	}

	sources := make([]domain.UploadSource, 0, fs.NArg())
	for _, path := range fs.Args() {
		info, err := inspect.FromPath(path)
		if err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("Cannot inspect file")
			sources = append(sources, domain.UploadSource{Name: filepath.Base(path)})
			continue
		}
		sources = append(sources, info.Source())
	}

	uploads := e.session.Uploads
	total := len(sources)
	uploads.OnProgress(func(i int, item upload.Item) {
		if !item.Progress.Terminal() {
			return
		}
		line := fmt.Sprintf("[%d/%d] %s: %d", i+1, total, item.Name, item.Progress.Value())
		if item.Err != nil {
			line += " (" + domain.StatusText(item.Err, "failed") + ")"
		}
		fmt.Fprintln(e.out, line)
	})

	if err := uploads.SelectBatch(sources); err != nil {
		return err
	}
	res := uploads.Run(ctx)
	fmt.Fprintln(e.out, res.Message)
	if err := uploads.WaitIdle(ctx); err != nil {
		return err
	}

	if res.State != domain.UploadSuccess {
		return fmt.Errorf("%w: %d of %d uploads failed", ErrOperationFailed, res.Tally.Failed, res.Tally.Total())
	}
	return nil
}

func runDelete(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("delete", e.out)
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	e.session.Catalog.FetchAll(ctx)
	return reportDelete(e, e.session.Catalog.DeleteOne(ctx, id))
}

func runDeleteBatch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("delete-batch", e.out)
	all := fs.Bool("all", false, "select every file in the catalog")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}

	e.session.Catalog.FetchAll(ctx)
	sel := e.session.Selection
	if *all {
		sel.ToggleAll()
	}
	for _, id := range fs.Args() {
		if !sel.Has(id) && !sel.Toggle(id) {
			fmt.Fprintf(e.out, "Skipping %s: not in catalog\n", id)
		}
	}

	outcome := e.session.Catalog.DeleteSelected(ctx)
	if errors.Is(outcome.Err, domain.ErrEmptySelection) {
		fmt.Fprintln(e.out, "No files selected")
		return nil
	}
	return reportDelete(e, outcome)
}

func runConvert(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("convert", e.out)
	format := fs.String("format", string(domain.FormatJPEG), "target format: jpeg, png or webp")
	width := fs.Int("width", 0, "target width, 0 for auto")
	height := fs.Int("height", 0, "target height, 0 for auto")
	quality := fs.Int("quality", domain.DefaultQuality, "quality 1-100, 0 to omit")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}
	return reportTool(e, e.session.Tools.Convert(ctx, record, domain.ConversionRequest{
		Format:  domain.ImageFormat(strings.ToLower(*format)),
		Width:   optional(*width),
		Height:  optional(*height),
		Quality: optional(*quality),
	}))
}

func runCompress(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("compress", e.out)
	quality := fs.Int("quality", domain.DefaultQuality, "quality 1-100")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}
	return reportTool(e, e.session.Tools.Compress(ctx, record, *quality))
}

func runResize(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("resize", e.out)
	width := fs.Int("width", 0, "target width, 0 for auto")
	height := fs.Int("height", 0, "target height, 0 for auto")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}
	return reportTool(e, e.session.Tools.Resize(ctx, record, optional(*width), optional(*height)))
}

func runCrop(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("crop", e.out)
	x := fs.Int("x", 0, "left offset")
	y := fs.Int("y", 0, "top offset")
	width := fs.Int("width", 0, "crop width")
	height := fs.Int("height", 0, "crop height")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}
	return reportTool(e, e.session.Tools.Crop(ctx, record, domain.CropRequest{X: *x, Y: *y, Width: *width, Height: *height}))
}

func runExtractText(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("extract-text", e.out)
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}

	outcome := e.session.Tools.ExtractText(ctx, record)
	if !outcome.OK {
		fmt.Fprintln(e.out, outcome.Status)
		return fmt.Errorf("%w: %v", ErrOperationFailed, outcome.Err)
	}
	fmt.Fprintln(e.out, outcome.Text)
	return nil
}

func runDownload(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("download", e.out)
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	record, err := lookup(ctx, e, id)
	if err != nil {
		return err
	}
	return reportTool(e, e.session.Tools.Download(ctx, record))
}

func runStats(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("stats", e.out)
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}

	view := e.session.Stats.Refresh(ctx)
	s := view.Summary
	fmt.Fprintf(e.out, "Total files:    %s\n", humanize.Comma(s.TotalFiles.Int64()))
	fmt.Fprintf(e.out, "Images:         %s\n", humanize.Comma(s.ImageCount.Int64()))
	fmt.Fprintf(e.out, "PDFs:           %s\n", humanize.Comma(s.PDFCount.Int64()))
	fmt.Fprintf(e.out, "Total size:     %s\n", domain.FormatBytes(s.TotalSize.Int64()))
	fmt.Fprintf(e.out, "Average size:   %s\n", domain.FormatBytes(s.AvgFileSize.Int64()))
	fmt.Fprintf(e.out, "Largest file:   %s\n", domain.FormatBytes(s.MaxFileSize.Int64()))

	printDuplicates(e.out, view.Duplicates)
	return nil
}

func runDuplicates(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("duplicates", e.out)
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}

	printDuplicates(e.out, e.session.Stats.FetchDuplicates(ctx))
	return nil
}

func runActivity(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("activity", e.out)
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if !e.cfg.Kafka.Enabled {
		return fmt.Errorf("%w: kafka is disabled (set KAFKA_ENABLED=true)", ErrUsage)
	}

	feed := kafka_impl.NewActivityFeed(e.cfg, e.logger)
	defer feed.Close()

	return feed.Tail(ctx, func(ev domain.ActivityEvent) {
		status := "ok"
		if !ev.OK {
			status = "failed"
		}
		target := ev.Filename
		if target == "" {
			target = ev.FileID
		}
		fmt.Fprintf(e.out, "%s %-14s %-7s %s %s\n", ev.At.Format("15:04:05"), ev.Kind, status, target, ev.Message)
	})
}

func lookup(ctx context.Context, e *env, id string) (domain.FileRecord, error) {
	res := e.session.Catalog.FetchAll(ctx)
	if res.Err != nil {
		fmt.Fprintln(e.out, res.Status)
		return domain.FileRecord{}, fmt.Errorf("%w: %v", ErrOperationFailed, res.Err)
	}

	record, ok := e.session.Catalog.Find(id)
	if !ok {
		return domain.FileRecord{}, fmt.Errorf("%s: %w", id, domain.ErrFileNotFound)
	}
	return record, nil
}

func reportDelete(e *env, outcome catalog.DeleteOutcome) error {
	if errors.Is(outcome.Err, domain.ErrDeclined) {
		fmt.Fprintln(e.out, "Cancelled")
		return nil
	}
	fmt.Fprintln(e.out, outcome.Status)
	if !outcome.OK {
		return fmt.Errorf("%w: %v", ErrOperationFailed, outcome.Err)
	}
	return nil
}

func reportTool(e *env, outcome tools.Outcome) error {
	fmt.Fprintln(e.out, outcome.Status)
	if !outcome.OK {
		return fmt.Errorf("%w: %v", ErrOperationFailed, outcome.Err)
	}
	return nil
}

func printFiles(out io.Writer, records []domain.FileRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No files uploaded yet")
		return
	}

	var images int
	var total int64
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tCREATED")
	for _, r := range records {
		if r.IsImage() {
			images++
		}
		total += r.Size.Int64()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.OriginalFilename, r.MimeType,
			domain.FormatBytes(r.Size.Int64()), "created "+humanize.Time(r.CreatedAt))
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%d file(s), %d image(s), %.2f MB total\n", len(records), images, float64(total)/1024/1024)
}

func printDuplicates(out io.Writer, groups []domain.DuplicateGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No duplicates found")
		return
	}

	fmt.Fprintln(out, "Duplicates:")
	for _, g := range groups {
		fmt.Fprintf(out, "  %s (%s) x%d\n", g.OriginalFilename, domain.FormatBytes(g.Size.Int64()), g.DuplicateCount.Int64())
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// parseWithID accepts the positional argument before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", usageError(err)
	}
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s needs an argument", ErrUsage, fs.Name())
	}
	return id, nil
}

func usageError(err error) error {
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

func optional(v int) *int {
	if v <= 0 {
		return nil
	}
	return domain.IntPtr(v)
}

func dims(info inspect.Info) string {
	if info.Width == 0 {
		return ""
	}
	return fmt.Sprintf(", %dx%d", info.Width, info.Height)
}
