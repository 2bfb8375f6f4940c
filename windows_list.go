package main

import (
	"context"
	"sort"
	"strings"
)

// WindowInfo describes one enumerated window for callers picking a
// target. Index is filled only when the window resolved to an instance.
type WindowInfo struct {
	Handle   WindowHandle `json:"handle"`
	Class    string       `json:"class"`
	Title    string       `json:"title"`
	Category string       `json:"category"`
	Index    int          `json:"index"`
	HasIndex bool         `json:"has_index"`
}

// WindowLister enumerates candidate target windows: visible top-level
// windows with a non-empty title, classified and (for emulator windows)
// resolved to their instance.
type WindowLister struct {
	api        winAPI
	classifier *WindowClassifier
	resolver   *TargetResolver
}

func NewWindowLister(api winAPI, classifier *WindowClassifier, resolver *TargetResolver) *WindowLister {
	return &WindowLister{api: api, classifier: classifier, resolver: resolver}
}

// List returns the current desktop's candidate windows, emulator windows
// first, then alphabetical by title. A window dying mid-enumeration is
// skipped, not an error.
func (l *WindowLister) List(ctx context.Context) ([]WindowInfo, error) {
	handles, err := l.api.TopLevelWindows()
	if err != nil {
		return nil, err
	}

	var out []WindowInfo
	for _, h := range handles {
		title, err := l.api.WindowText(h)
		if err != nil || strings.TrimSpace(title) == "" {
			continue
		}
		class, err := l.api.ClassName(h)
		if err != nil {
			continue
		}

		category := l.classifier.Classify(h)
		info := WindowInfo{
			Handle:   h,
			Class:    class,
			Title:    title,
			Category: category.String(),
		}
		if category.IsEmulator() {
			if t := l.resolver.Resolve(ctx, h, category); t != nil {
				if idx, ok := t.VMIndex(); ok {
					info.Index = idx
					info.HasIndex = true
				}
			}
		}
		out = append(out, info)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HasIndex != out[j].HasIndex {
			return out[i].HasIndex
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}
