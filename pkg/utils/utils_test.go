// Copyright 2026 fanjia1024
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

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesceString(t *testing.T) {
	cases := map[string]struct {
		in   []string
		want string
	}{
		"none":            {nil, ""},
		"all empty":       {[]string{"", ""}, ""},
		"header wins":     {[]string{"openai", "anthropic"}, "openai"},
		"falls to second": {[]string{"", "anthropic", "openai"}, "anthropic"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, c.want, CoalesceString(c.in...))
		})
	}
}

func TestDefaultInt(t *testing.T) {
	assert.Equal(t, 4, DefaultInt(0, 4))
	assert.Equal(t, 4, DefaultInt(-2, 4))
	assert.Equal(t, 8, DefaultInt(8, 4))
}
