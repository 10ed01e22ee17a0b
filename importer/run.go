// Package importer drives one import batch end to end: parse the PTD text
// export, convert to placement units, optionally align the layout to a known
// outline, cluster tendons into annotation groups and write the placement
// document.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ptdi/align"
	"ptdi/config"
	"ptdi/group"
	"ptdi/plan"
	"ptdi/ptd"
	"ptdi/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("import")

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
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	units := env.Cfg.Import.Units
	if s := cmd.String("units"); len(s) > 0 {
		units = s
	}
	unit, err := plan.ParseUnit(units)
	if err != nil {
		log.Warn("Unknown units requested, switching to millimetres", zap.Error(err))
		unit = plan.UnitMM
	}

	format := env.Cfg.Import.Format
	if s := cmd.String("format"); len(s) > 0 {
		format = s
	}
	if format != "yaml" && format != "xml" {
		log.Warn("Unknown output format requested, switching to yaml", zap.String("format", format))
		format = "yaml"
	}

	env.Overwrite = cmd.Bool("overwrite")
	env.NoAlign, env.NoGroup = cmd.Bool("no-align"), cmd.Bool("no-group")

	log.Info("Import starting",
		zap.String("source", src), zap.String("destination", dst),
		zap.Stringer("units", unit), zap.String("format", format))
	defer func(start time.Time) {
		log.Info("Import completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, unit, format, cmd.String("outline"), log)
}

// process handles the import pipeline independently of the CLI framework.
func process(ctx context.Context, src, dst string, unit plan.Unit, format, outlinePath string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	records, err := ptd.ParseFile(src, log)
	if err != nil {
		return fmt.Errorf("unable to parse tendon export (%s): %w", src, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no tendons found in export (%s)", src)
	}
	env.Rpt.Store("source"+filepath.Ext(src), src)

	tendons := plan.Adapt(records, unit)

	var alignment *Alignment
	if len(outlinePath) != 0 && env.Cfg.Alignment.Enable && !env.NoAlign {
		if alignment, err = alignToOutline(tendons, outlinePath, unit, &env.Cfg.Alignment, log); err != nil {
			return err
		}
	}

	groups := partition(tendons, unit, &env.Cfg.Grouping, env.NoGroup, log)

	doc := buildDocument(filepath.Base(src), unit, groups, alignment)

	var data []byte
	if format == "xml" {
		data, err = doc.EncodeXML()
	} else {
		data, err = doc.EncodeYAML()
	}
	if err != nil {
		return err
	}

	name := config.CleanFileName(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
	outputName := filepath.Join(dst, name+"."+format)

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write placement document: %w", err)
	}

	env.Rpt.StoreData(fmt.Sprintf("result-%s.%s", doc.Batch, format), data)

	log.Info("Placement document written",
		zap.String("file", outputName), zap.Int("tendons", len(tendons)), zap.Int("groups", len(groups)))
	return nil
}

// alignToOutline runs the transform search and applies the result in place.
// Not finding a fit is not an error - the batch is imported at export
// coordinates and the document records it as unaligned.
func alignToOutline(tendons plan.TendonSet, outlinePath string, unit plan.Unit, conf *config.AlignmentConfig, log *zap.Logger) (*Alignment, error) {
	outline, err := loadOutline(outlinePath)
	if err != nil {
		return nil, err
	}

	search := &align.Search{
		AngleStep:     conf.AngleStepDeg,
		RefineStep:    conf.RefineStepDeg,
		MaxError:      unit.FromMM(conf.MaxErrorMM),
		Tolerance:     unit.FromMM(conf.ToleranceMM),
		AllowRotation: conf.AllowRotation,
		Log:           log,
	}

	tr, fitErr, err := search.Find(outline, tendons.EndPoints())
	if errors.Is(err, align.ErrNoFit) {
		log.Warn("No placement within error threshold, tendons kept at export coordinates",
			zap.String("outline", outlinePath))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tendons.ApplyTransform(tr)
	log.Info("Layout aligned to outline",
		zap.Float64("angle_deg", tr.Angle*180/math.Pi), zap.Float64("error", fitErr))
	return &Alignment{
		AngleDeg: tr.Angle * 180 / math.Pi,
		Dx:       tr.Dx,
		Dy:       tr.Dy,
		Error:    fitErr,
	}, nil
}

// partition clusters tendons, or emits one singleton group per tendon when
// grouping is off - the document shape stays the same either way.
func partition(tendons plan.TendonSet, unit plan.Unit, conf *config.GroupingConfig, disabled bool, log *zap.Logger) []group.Group {
	if !conf.Enable || disabled {
		groups := make([]group.Group, 0, len(tendons))
		for _, t := range tendons {
			groups = append(groups, group.Group{Tendons: plan.TendonSet{t}})
		}
		return groups
	}

	tol := group.Tolerances{
		Angle:   conf.AngleTolDeg,
		Length:  unit.FromMM(conf.LengthTolMM),
		Spacing: unit.FromMM(conf.SpacingTolMM),
		Shift:   unit.FromMM(conf.ShiftTolMM),
		Dist:    unit.FromMM(conf.DrapeDistTolMM),
		Height:  conf.DrapeHeightTolMM,
	}
	return group.Partition(tendons, tol, log)
}
