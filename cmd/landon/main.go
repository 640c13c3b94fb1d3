// landon prepares meshes and armatures exported from Blender for the GPU.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Fedoresko/landon/internal/config"
	"github.com/Fedoresko/landon/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "meshes":
		cmdMeshes(args)
	case "export":
		cmdExport(args)
	case "blend":
		cmdBlend(args)
	case "info":
		cmdInfo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`landon - Blender mesh and armature preparation

Usage:
  landon <command> [options]

Commands:
  meshes <stdout.txt|->        Prepare meshes from captured Blender output
  export <file.blend>...       Run Blender headless, then prepare its meshes
  blend <stdout.txt|->         Blend two keyframes of an armature action
  info <stdout.txt|->          List the meshes and armatures in Blender output
  config [-save]               Print the effective config, optionally saving it

Options shared by every command:
  -config <path>   Config file (default ./landon.yaml, then the user config dir)
  -format json|glb -out <dir>  Output format and directory
  -groups <n>      Bone groups per vertex (0 keeps exported groups)
  -no-y-up         Keep Blender's Z-up coordinates
  -workers <n>     Meshes processed in parallel
  -debug           Enable debug logging

Examples:
  blender scene.blend --background --python mesh2json.py > out.txt
  landon meshes out.txt > prepared.txt
  landon export -format glb -out build/ scene.blend
  landon blend -armature Rig -action Walk -from 0 -to 1 -t 0.5 rig.txt
  landon blend -action Walk -group legs -t 0.25 rig.txt`)
}

// setup parses the command's flags, loads config and starts logging.
func setup(fs *flag.FlagSet, args []string) *config.Config {
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}
	return cfg
}

// readInput reads a file, or stdin for "-".
func readInput(path string) string {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatal(err)
	}
	return string(data)
}

func fatal(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
