package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vmconv/archive"
	"vmconv/common"
	"vmconv/modelxml"
	"vmconv/state"
	dbg "vmconv/utils/debug"
)

// inputExts lists extensions of files picked up when source is a directory.
var inputExts = []string{".html", ".htm", ".xhtml"}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format := env.Cfg.Output.Format
	if to := cmd.String("to"); len(to) > 0 {
		if format, err = common.ParseOutputFmt(to); err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(err), zap.Stringer("format", env.Cfg.Output.Format))
			format = env.Cfg.Output.Format
		}
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	pipeline, err := NewPipeline(&env.Cfg.Conversion, log)
	if err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, pipeline, src, dst, format, log)
}

// process handles conversion independently of CLI framework. Source could
// be an HTML file, a directory tree, a zip archive or a path inside zip
// archive.
func process(ctx context.Context, p *Pipeline, src, dst string, format common.OutputFmt, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, p, head, dst, format, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			return nil
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := archive.IsArchive(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			pathIn := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, p, head, pathIn, "", dst, format, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}

		if len(tail) == 0 && isInputFile(head) {
			return processPath(ctx, p, head, filepath.Base(head), dst, format, log)
		}
		return fmt.Errorf("input was not recognized as HTML (%s)", head)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

func isInputFile(path string) bool {
	return slices.Contains(inputExts, strings.ToLower(filepath.Ext(path)))
}

// processDir converts every HTML file and zip archive found under dir in
// natural order. Failure of a single file does not stop processing, all
// failures are returned together.
func processDir(ctx context.Context, p *Pipeline, dir, dst string, format common.OutputFmt, log *zap.Logger) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortFunc(files, naturalCompare)

	var (
		errs  error
		count int
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		if isInputFile(path) {
			count++
			if err := processPath(ctx, p, path, rel, dst, format, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", rel, err))
			}
			continue
		}

		isArchive, err := archive.IsArchive(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !isArchive {
			log.Debug("Skipping file, not recognized as HTML or archive", zap.String("file", path))
			continue
		}
		count++
		if err := processArchive(ctx, p, path, "", filepath.Dir(rel), dst, format, log); err != nil {
			log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", rel, err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return errs
}

// processArchive converts HTML files inside archive located under pathIn.
// Output structure mirrors archive content placed under pathOut.
func processArchive(ctx context.Context, p *Pipeline, path, pathIn, pathOut, dst string, format common.OutputFmt, log *zap.Logger) error {
	var (
		errs  error
		count int
	)
	skipped, err := archive.Walk(path, pathIn, isInputFile, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.Name, err))
			return nil
		}
		defer r.Close()

		if err := processFile(ctx, p, r, filepath.Join(pathOut, filepath.FromSlash(f.Name)), dst, format, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
		return nil
	})
	for _, name := range skipped {
		log.Warn("Skipping unsafe path in archive", zap.String("archive", path), zap.String("path", name))
	}
	if err != nil {
		return multierr.Append(errs, err)
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
	}
	return errs
}

func processPath(ctx context.Context, p *Pipeline, path, src, dst string, format common.OutputFmt, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return processFile(ctx, p, f, src, dst, format, log)
}

// processFile converts single HTML document. "src" is the source path
// relative to the original input (just base name when file was specified
// directly, relative path when looking inside directory or archive), "dst"
// is the destination directory.
func processFile(ctx context.Context, p *Pipeline, r io.Reader, src, dst string, format common.OutputFmt, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var refID, outputName string

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read source (%s): %w", src, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("unable to generate document id: %w", err)
	}
	refID = id.String()

	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("source-%s%s", refID, filepath.Ext(src)), data)
	}

	frag, err := p.Convert(bytes.NewReader(data), "")
	if err != nil {
		return fmt.Errorf("unable to convert source (%s): %w", src, err)
	}

	outputName = buildOutputPath(frag, refID, src, dst, format, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := writeOutput(outputName, func(w io.Writer) error {
		switch format {
		case common.OutputFmtTree:
			_, err := io.WriteString(w, dbg.DumpModel(frag))
			return err
		default:
			return modelxml.Write(w, frag,
				modelxml.WithID(id),
				modelxml.WithSource(filepath.ToSlash(src)),
				modelxml.WithIndent(env.Cfg.Output.Indent))
		}
	}); err != nil {
		return fmt.Errorf("unable to generate output: %w", err)
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)
	}
	return nil
}

func writeOutput(name string, gen func(io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return gen(f)
}
