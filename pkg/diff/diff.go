// Package diff 三方文本合并
package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// MergeResult 合并结果
type MergeResult struct {
	Content     string
	HasConflict bool
}

// MergeTexts 以 base 为共同祖先，把 theirs 相对 base 的改动打到 ours 上
// 任一补丁无法应用时视为冲突，Content 保留 ours
func MergeTexts(base, ours, theirs string) MergeResult {
	switch {
	case ours == theirs, theirs == base:
		return MergeResult{Content: ours}
	case ours == base:
		return MergeResult{Content: theirs}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, theirs, false)
	patches := dmp.PatchMake(base, diffs)

	merged, applied := dmp.PatchApply(patches, ours)
	for _, ok := range applied {
		if !ok {
			return MergeResult{Content: ours, HasConflict: true}
		}
	}
	return MergeResult{Content: merged}
}
