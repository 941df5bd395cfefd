// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package servotest provides helpers for testing code that derives
// things from API descriptions.
package servotest

import (
	"fmt"
	"math/rand"

	"github.com/diffeo/go-servo/servo"
)

// Generator produces random API descriptions.  Every path segment and
// parameter name it produces is unique within one Generator, so no two
// endpoints of a generated description share a verb and path.
type Generator struct {
	Rand *rand.Rand

	// MaxAlternatives bounds the width of generated Any nodes.
	// Zero means 3.
	MaxAlternatives int

	serial int
}

// NewGenerator creates a generator with a fixed seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{Rand: rand.New(rand.NewSource(seed))}
}

func (g *Generator) name(prefix string) string {
	g.serial++
	return fmt.Sprintf("%s%d", prefix, g.serial)
}

// Tree generates a description at most depth nodes deep.  Every
// terminal declares a 200 response carrying a string.
func (g *Generator) Tree(depth int) servo.Node {
	if depth <= 0 {
		return g.method()
	}
	switch g.Rand.Intn(8) {
	case 0:
		return g.method()
	case 1:
		return servo.NewCaptureNode(g.name("c"), g.Tree(depth-1))
	case 2:
		return servo.NewHeaderNode(g.name("x-h"), g.Tree(depth-1))
	case 3:
		return servo.NewQueryNode(g.name("q"), 0, g.Tree(depth-1))
	case 4:
		return servo.NewBodyNode(servo.JSON, nil, g.Tree(depth-1))
	case 5:
		return servo.NewOrNode(g.Tree(depth-1), g.Tree(depth-1))
	case 6:
		max := g.MaxAlternatives
		if max <= 0 {
			max = 3
		}
		alternatives := make([]servo.Node, 1+g.Rand.Intn(max))
		for i := range alternatives {
			alternatives[i] = g.Tree(depth - 1)
		}
		return servo.NewAnyNode(alternatives...)
	}
	return servo.NewPathNode(g.name("p"), g.Tree(depth-1))
}

func (g *Generator) method() servo.Node {
	// A fresh segment keeps sibling terminals apart.
	verb := servo.Verbs[g.Rand.Intn(len(servo.Verbs))]
	m, err := servo.NewMethodNode(verb, servo.OK(""))
	if err != nil {
		panic(err)
	}
	return servo.NewPathNode(g.name("m"), m)
}

// Leaves counts the terminals of a description.
func Leaves(n servo.Node) int {
	count := 0
	_ = servo.Walk(n, func(n servo.Node) error {
		if n.Kind() == servo.MethodKind {
			count++
		}
		return nil
	})
	return count
}

// Shape renders the branching structure of a description together with
// its captures, in the format of servo.Tree.Signature with header,
// query and body parameters omitted.  Any correct deriver produces a
// tree whose Signature, with those kinds omitted, equals Shape.
func Shape(n servo.Node) string {
	switch n := n.(type) {
	case *servo.MethodNode:
		return "leaf"
	case *servo.CaptureNode:
		return fmt.Sprintf("%v(%s) -> %s", n.Kind(), n.Name(), Shape(n.Next()))
	case *servo.OrNode:
		return "[" + Shape(n.Left()) + ", " + Shape(n.Right()) + "]"
	case *servo.AnyNode:
		s := "["
		for i, alt := range n.Alternatives() {
			if i > 0 {
				s += ", "
			}
			s += Shape(alt)
		}
		return s + "]"
	}
	return Shape(servo.Children(n)[0])
}
