// Copyright 2026 The CBI Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codebase-investigator/cbi/internal/platform"
)

// TreeNode is one directory or file entry of the cbi-tree view.
type TreeNode struct {
	Name     string
	IsDir    bool
	Live     bool // at least one line of this file (or some descendant) is live anywhere
	Children []*TreeNode
}

// BuildTree arranges sm's files into a directory tree rooted at root,
// computing each node's Live flag bottom-up.
func BuildTree(sm *platform.SetMap, root string) *TreeNode {
	rootNode := &TreeNode{Name: root, IsDir: true}
	byPath := map[string]*TreeNode{"": rootNode}

	for _, f := range sm.Files() {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			rel = f
		}
		rel = filepath.ToSlash(rel)
		parts := strings.Split(rel, "/")

		cur := rootNode
		curKey := ""
		for i, part := range parts {
			isLeaf := i == len(parts)-1
			key := curKey + "/" + part
			child, ok := byPath[key]
			if !ok {
				child = &TreeNode{Name: part, IsDir: !isLeaf}
				byPath[key] = child
				cur.Children = append(cur.Children, child)
			}
			if isLeaf {
				child.Live = len(sm.Lines(f)) > 0
			}
			cur = child
			curKey = key
		}
	}

	markLiveDirs(rootNode)
	sortTree(rootNode)
	return rootNode
}

func markLiveDirs(n *TreeNode) bool {
	if !n.IsDir {
		return n.Live
	}
	live := false
	for _, c := range n.Children {
		if markLiveDirs(c) {
			live = true
		}
	}
	n.Live = live
	return live
}

func sortTree(n *TreeNode) {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	for _, c := range n.Children {
		sortTree(c)
	}
}

// Prune removes every subtree that is dead under every configured
// platform, implementing SUPPLEMENTED FEATURE #3 (`cbi-tree --prune`).
func Prune(n *TreeNode) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if !c.Live {
			continue
		}
		Prune(c)
		kept = append(kept, c)
	}
	n.Children = kept
}

// WriteTree renders the tree to w, depth-limited to maxDepth (0 means
// unlimited), one entry per line, indented by depth.
func WriteTree(w io.Writer, n *TreeNode, maxDepth int) {
	writeTree(w, n, 0, maxDepth)
}

func writeTree(w io.Writer, n *TreeNode, depth, maxDepth int) {
	marker := " "
	if !n.Live {
		marker = "x"
	}
	fmt.Fprintf(w, "%s[%s] %s\n", strings.Repeat("  ", depth), marker, n.Name)
	if maxDepth > 0 && depth+1 >= maxDepth {
		return
	}
	for _, c := range n.Children {
		writeTree(w, c, depth+1, maxDepth)
	}
}
