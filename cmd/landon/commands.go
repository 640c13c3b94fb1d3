package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Fedoresko/landon/internal/config"
	"github.com/Fedoresko/landon/internal/logger"
	"github.com/Fedoresko/landon/internal/pipeline"
	"github.com/Fedoresko/landon/pkg/armature"
	"github.com/Fedoresko/landon/pkg/blender"
)

func cmdMeshes(args []string) {
	fs := flag.NewFlagSet("meshes", flag.ExitOnError)
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: landon meshes [options] <stdout.txt|->")
		os.Exit(1)
	}

	exported, err := blender.ParseMeshes(readInput(fs.Arg(0)))
	if err != nil {
		fatal(err)
	}
	prepare(cfg, exported)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	raw := fs.Bool("raw", false, "Print Blender's output without preparing it")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: landon export [options] <file.blend>...")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exporter := &blender.Exporter{
		Executable: cfg.Blender.Executable,
		Timeout:    cfg.Blender.Timeout,
	}

	exported := make(blender.FilenamesToMeshes)
	for _, blendFile := range fs.Args() {
		logger.Info("exporting", zap.String("file", blendFile))

		stdout, err := exporter.Run(ctx, blendFile, cfg.Blender.MeshScript, blender.MeshOperator)
		if err != nil {
			fatal(err)
		}
		if *raw {
			fmt.Print(stdout)
			continue
		}

		meshes, err := blender.ParseMeshes(stdout)
		if err != nil {
			fatal(err)
		}
		for file, byName := range meshes {
			if exported[file] == nil {
				exported[file] = make(blender.MeshNamesToData)
			}
			maps.Copy(exported[file], byName)
		}
	}

	if !*raw {
		prepare(cfg, exported)
	}
}

// prepare runs the pipeline over every exported mesh and writes the results.
func prepare(cfg *config.Config, exported blender.FilenamesToMeshes) {
	items := pipeline.Items(exported)
	if len(items) == 0 {
		logger.Warn("no meshes found")
		return
	}

	results := pipeline.RunBatch(context.Background(), items, pipeline.OptionsFrom(cfg.Pipeline))
	if err := pipeline.Err(results); err != nil {
		fatal(err)
	}

	if err := writeMeshes(os.Stdout, cfg.Export, items); err != nil {
		fatal(err)
	}
}

func cmdBlend(args []string) {
	fs := flag.NewFlagSet("blend", flag.ExitOnError)
	name := fs.String("armature", "", "Armature name (optional when there is only one)")
	action := fs.String("action", "", "Action name")
	group := fs.String("group", "", "Blend only the joints of this bone group")
	from := fs.Int("from", 0, "Start keyframe index")
	to := fs.Int("to", 1, "End keyframe index")
	t := fs.Float64("t", 0.5, "Blend amount: 0 is the start keyframe, 1 the end")
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 || *action == "" {
		fmt.Fprintln(os.Stderr, "Usage: landon blend -action <name> [-armature <name>] [-group <name>] [-from i] [-to j] [-t 0.5] <stdout.txt|->")
		os.Exit(1)
	}

	armatures, err := blender.ParseArmatures(readInput(fs.Arg(0)))
	if err != nil {
		fatal(err)
	}
	arm, err := findArmature(armatures, *name)
	if err != nil {
		fatal(err)
	}

	pose, err := blendKeyframes(arm, *action, *group, *from, *to, float32(*t))
	if err != nil {
		fatal(err)
	}

	data, err := blender.EncodePose(pose)
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(data))
}

var (
	errArmatureNotFound  = errors.New("armature not found")
	errBoneGroupNotFound = errors.New("bone group not found")
	errNonFiniteBone     = errors.New("blended bone is not finite")
)

// findArmature picks the named armature, or the only one when name is empty.
func findArmature(armatures blender.FilenamesToArmatures, name string) (*armature.Armature, error) {
	var found []*armature.Armature
	for _, file := range slices.Sorted(maps.Keys(armatures)) {
		for armName, arm := range armatures[file] {
			if name == "" || armName == name {
				found = append(found, arm)
			}
		}
	}

	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) == 0 && name != "":
		return nil, fmt.Errorf("%w: %s", errArmatureNotFound, name)
	case len(found) == 0:
		return nil, errArmatureNotFound
	default:
		return nil, fmt.Errorf("%d armatures match, pick one with -armature", len(found))
	}
}

// blendKeyframes blends two keyframes of an action. Matrix bones are
// converted to dual quaternions first. With a bone group only its joints are
// blended; the other joints keep the start keyframe's transform.
func blendKeyframes(arm *armature.Armature, action, group string, from, to int, t float32) (armature.Pose, error) {
	if err := arm.ActionsToDualQuats(); err != nil {
		return nil, err
	}
	start, err := arm.KeyframePose(action, from)
	if err != nil {
		return nil, err
	}
	end, err := arm.KeyframePose(action, to)
	if err != nil {
		return nil, err
	}

	logger.Debug("blending",
		zap.String("armature", arm.Name),
		zap.String("action", action),
		zap.String("group", group),
		zap.Int("from", from),
		zap.Int("to", to),
		zap.Float32("t", t))

	if group == "" {
		return checkFinite(armature.BlendTowards(start, end, t))
	}

	joints, ok := arm.BoneGroups[group]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errBoneGroupNotFound, group)
	}
	blended, err := checkFinite(armature.BlendTowards(start.Only(joints), end.Only(joints), t))
	if err != nil {
		return nil, err
	}
	return start.Merge(blended), nil
}

func checkFinite(pose armature.Pose, err error) (armature.Pose, error) {
	if err != nil {
		return nil, err
	}
	for _, id := range pose.JointIDs() {
		if dq, ok := pose[id].(armature.DualQuat); ok && !dq.IsFinite() {
			return nil, fmt.Errorf("%w: joint %d", errNonFiniteBone, id)
		}
	}
	return pose, nil
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: landon info <stdout.txt|->")
		os.Exit(1)
	}

	stdout := readInput(fs.Arg(0))
	meshes, err := blender.ParseMeshes(stdout)
	if err != nil {
		fatal(err)
	}
	armatures, err := blender.ParseArmatures(stdout)
	if err != nil {
		fatal(err)
	}

	printInfo(os.Stdout, meshes, armatures)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.Bool("save", false, "Save the effective config to the user config directory")
	cfg := setup(fs, args)
	defer logger.Sync()

	if err := showConfig(os.Stdout, cfg, *save); err != nil {
		fatal(err)
	}
}

// showConfig prints the effective config as YAML and optionally saves it.
func showConfig(w io.Writer, cfg *config.Config, save bool) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if save {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		logger.Info("saved config", zap.String("dir", config.ConfigDir()))
	}
	return nil
}
