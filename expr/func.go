// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package expr

import "github.com/sunli829/yql/array"

// StatefulFunction is one running instance of a stateful Function
// (an aggregate or another function whose output depends on rows
// seen in earlier batches). Implementations must be safe to Clone —
// the aggregate operator clones a fresh set of instances per group.
type StatefulFunction interface {
	Call(args []array.Array) (array.Array, error)
	SaveState() ([]byte, error)
	LoadState(data []byte) error
	Clone() StatefulFunction
}

// StatelessFunc is a pure function of its arguments.
type StatelessFunc func(args []array.Array) (array.Array, error)

// StatefulFactory creates a fresh StatefulFunction instance, one per
// Call node that references the function.
type StatefulFactory func() StatefulFunction

// Function is a registry entry: a name, signature, return type rule,
// and either a stateless implementation or a stateful factory.
type Function struct {
	Namespace  string // "" for the default namespace
	Name       string
	Signature  Signature
	ReturnType func(argTypes []array.DataType) array.DataType
	Stateless  StatelessFunc
	Stateful   StatefulFactory
}

func (f *Function) IsStateful() bool { return f.Stateful != nil }

// QualifiedName returns "namespace.name", or just "name" when
// Namespace is "".
func (f *Function) QualifiedName() string {
	if f.Namespace == "" {
		return f.Name
	}
	return f.Namespace + "." + f.Name
}
