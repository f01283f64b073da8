// Package manifest parses package.json files and edits them without
// disturbing the parts it does not touch. Reads go through gjson, writes
// queue as pure modifications replayed with sjson over the original bytes.
package manifest

import (
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/monorel/monorel/domain"
)

// Parse builds the typed view of a package.json document.
func Parse(path string, data []byte) (*domain.Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, &domain.MalformedError{Path: path, Reason: "not valid JSON"}
	}

	root := gjson.ParseBytes(data)
	m := &domain.Manifest{
		Name:         root.Get("name").String(),
		RawVersion:   root.Get("version").String(),
		Private:      root.Get("private").Bool(),
		Dependencies: map[domain.DependencyKind]map[string]string{},
		Scripts:      map[string]string{},
	}

	if m.Name == "" {
		return nil, &domain.MalformedError{Path: path, Reason: "missing name field"}
	}

	if m.RawVersion != "" {
		v, err := domain.ParseVersion(m.RawVersion)
		if err != nil {
			return nil, err
		}
		m.Version = v
	}

	m.Workspaces, m.NoHoist = parseWorkspaces(root.Get("workspaces"))

	for _, kind := range domain.AllDependencyKinds {
		deps := map[string]string{}
		root.Get(kind.ManifestField()).ForEach(func(key, value gjson.Result) bool {
			deps[key.String()] = value.String()
			return true
		})
		if len(deps) > 0 {
			m.Dependencies[kind] = deps
		}
	}

	root.Get("scripts").ForEach(func(key, value gjson.Result) bool {
		m.Scripts[key.String()] = value.String()
		return true
	})

	return m, nil
}

// parseWorkspaces handles both the array form and the object form with
// packages and nohoist lists.
func parseWorkspaces(node gjson.Result) (patterns, nohoist []string) {
	collect := func(list gjson.Result) []string {
		var out []string
		list.ForEach(func(_, value gjson.Result) bool {
			out = append(out, value.String())
			return true
		})
		return out
	}

	if node.IsArray() {
		return collect(node), nil
	}
	if node.IsObject() {
		return collect(node.Get("packages")), collect(node.Get("nohoist"))
	}
	return nil, nil
}

// Load reads and parses a manifest from the filesystem.
func Load(fs afero.Fs, path string) (*domain.Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// escapePathKey makes a JSON object key safe for gjson/sjson path syntax.
// Dependency names like "lodash.merge" contain path metacharacters.
func escapePathKey(key string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`)
	return replacer.Replace(key)
}
