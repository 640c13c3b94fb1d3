package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Fedoresko/landon/internal/config"
	"github.com/Fedoresko/landon/internal/logger"
	"github.com/Fedoresko/landon/internal/pipeline"
	"github.com/Fedoresko/landon/pkg/blender"
	"github.com/Fedoresko/landon/pkg/gltfexport"
	"github.com/Fedoresko/landon/pkg/mesh"
)

// writeMeshes writes prepared meshes as configured. JSON without an output
// directory goes to w in the same framing Blender's exporter uses, so the
// result can be parsed again.
func writeMeshes(w io.Writer, exp config.ExportConfig, items []pipeline.Item) error {
	if exp.Format == config.FormatGLB {
		return writeGLB(exp.OutputDir, items)
	}

	if exp.OutputDir != "" {
		if err := os.MkdirAll(exp.OutputDir, 0755); err != nil {
			return err
		}
	}

	for _, item := range items {
		data, err := blender.EncodeMesh(item.Mesh)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", item.Name, err)
		}

		if exp.OutputDir == "" {
			fmt.Fprintf(w, "%s %s %s\n%s\n%s %s %s\n",
				blender.MeshStart, item.File, item.Name, data,
				blender.MeshEnd, item.File, item.Name)
			continue
		}

		path := filepath.Join(exp.OutputDir, baseName(item.File)+"_"+item.Name+".json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		logger.Info("wrote mesh", zap.String("path", path))
	}
	return nil
}

// writeGLB writes one binary glTF per blend file.
func writeGLB(dir string, items []pipeline.Item) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	byFile := make(map[string]map[string]*mesh.Mesh)
	for _, item := range items {
		if byFile[item.File] == nil {
			byFile[item.File] = make(map[string]*mesh.Mesh)
		}
		byFile[item.File][item.Name] = item.Mesh
	}

	for _, file := range slices.Sorted(maps.Keys(byFile)) {
		path := filepath.Join(dir, baseName(file)+".glb")
		if err := gltfexport.Write(path, byFile[file]); err != nil {
			return err
		}
		logger.Info("wrote glb", zap.String("path", path), zap.Int("meshes", len(byFile[file])))
	}
	return nil
}

// baseName returns the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// printInfo lists meshes and armatures found in Blender's output.
func printInfo(w io.Writer, meshes blender.FilenamesToMeshes, armatures blender.FilenamesToArmatures) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Meshes: %d\n", meshes.Count())
	for _, file := range slices.Sorted(maps.Keys(meshes)) {
		fmt.Fprintf(tw, "%s\n", file)
		for _, name := range slices.Sorted(maps.Keys(meshes[file])) {
			m := meshes[file][name]
			fmt.Fprintf(tw, "  %s\tpositions %d\tfaces %d\tnormals %d\tuvs %d\tgroups %v\n",
				name, m.Positions.Len(), len(m.FaceArities), m.Normals.Len(), m.UVs.Len(), m.HasGroups())
		}
	}

	for _, file := range slices.Sorted(maps.Keys(armatures)) {
		fmt.Fprintf(tw, "Armatures in %s\n", file)
		for _, name := range slices.Sorted(maps.Keys(armatures[file])) {
			arm := armatures[file][name]
			fmt.Fprintf(tw, "  %s\tjoints %d\tactions %s\n",
				name, len(arm.JointIndices), strings.Join(arm.ActionNames(), ", "))
		}
	}
}
