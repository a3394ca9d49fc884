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

// Funcs is the registry of builtin functions, following the teacher's
// style of a flat const table (rather than an init-time map) so the
// set is visible in one place.
var Funcs = buildRegistry()

func buildRegistry() []*Function {
	var out []*Function
	out = append(out, mathFuncs()...)
	out = append(out, miscFuncs()...)
	out = append(out, aggregateFuncs()...)
	return out
}

// LookupFunc finds a registered function by qualified name
// ("namespace.name", or bare "name" for the default namespace).
func LookupFunc(name string) (*Function, bool) {
	for _, f := range Funcs {
		if f.QualifiedName() == name {
			return f, true
		}
	}
	return nil, false
}
