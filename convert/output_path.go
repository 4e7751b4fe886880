package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"vmconv/common"
	"vmconv/config"
	"vmconv/model"
	"vmconv/state"
)

// buildOutputPath returns constructed output file path/name. It uses either
// source file name or user-defined template and takes into account whether
// to preserve source directory structure on the output. Path is cleaned and
// if requested slugified.
func buildOutputPath(frag *model.DocumentFragment, docID, src, dst string, format common.OutputFmt, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)

	if env.Cfg.Output.NameTemplate == "" {
		return filepath.Join(outDir, buildDefaultFileName(src, format, env))
	}

	expandedName := expandOutputNameTemplate(frag, docID, src, format, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, buildDefaultFileName(src, format, env))
	}
	return assemblePathWithSubdirs(outDir, expandedName, format, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, format common.OutputFmt, env *state.LocalEnv) string {
	return cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env) + format.Ext()
}

func expandOutputNameTemplate(frag *model.DocumentFragment, docID, src string, format common.OutputFmt, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(frag, docID, src, config.NameTemplateFieldName, env.Cfg.Output.NameTemplate, format)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(strings.TrimSpace(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and slugifying segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, format common.OutputFmt, env *state.LocalEnv) string {
	pathSegments := splitPath(expandedName)
	if len(pathSegments) == 0 {
		return outDir
	}

	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)
	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}
	dirParts = append(dirParts, cleanPathSegment(pathSegments[len(pathSegments)-1], env)+format.Ext())
	return filepath.Join(dirParts...)
}

// splitPath returns path segments dropping empty, "." and ".." ones so
// expanded name never leaves output directory.
func splitPath(path string) []string {
	segments := strings.Split(strings.Trim(path, string(os.PathSeparator)), string(os.PathSeparator))
	return slices.DeleteFunc(segments, func(s string) bool {
		return s == "" || s == "." || s == ".."
	})
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.SlugNames {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
