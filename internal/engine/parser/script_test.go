package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scriptFixture = `import React, { useState } from 'react';
import type { User } from './types';
import * as api from '../api/client';
import Layout from './Layout';

export async function loadUser(id: string, opts = {}): Promise<User> {
  if (!id || opts.skip) {
    return null;
  }
  const user = await api.fetchUser(id);
  return normalize(user);
}

const helper = (a, b) => {
  return a ?? b;
};

export class UserStore extends BaseStore implements Disposable, Loggable {
  constructor(client) {
    super(client);
  }

  async refresh(force: boolean): Promise<void> {
    for (const u of this.users) {
      this.update(u);
    }
  }
}

function Profile() {
  return <Layout>{helper(1, 2)}</Layout>;
}

export default Profile;
`

func TestScriptLexicalExtractor(t *testing.T) {
	res := NewScriptLexicalExtractor().Extract(context.Background(), "web/profile.tsx", []byte(scriptFixture))
	require.Empty(t, res.ParseErrors)

	require.Len(t, res.Imports, 4)
	assert.Equal(t, "react", res.Imports[0].Module)
	assert.Equal(t, []string{"useState"}, res.Imports[0].Names)
	assert.True(t, res.Imports[1].IsTypeImport)
	assert.Equal(t, "../api/client", res.Imports[2].Module)
	assert.Equal(t, "api", res.Imports[2].Alias)
	assert.Equal(t, "Layout", res.Imports[3].Alias)

	load := findFunction(t, res, "loadUser")
	assert.Equal(t, "function", load.FunctionType)
	assert.True(t, load.IsExported)
	assert.True(t, load.IsAsync)
	assert.Equal(t, []string{"id", "opts"}, load.Parameters)
	assert.Equal(t, "Promise<User>", load.ReturnType)
	assert.Equal(t, 6, load.LineStart)
	assert.Equal(t, 12, load.LineEnd)
	assert.Equal(t, 3, load.Complexity)
	assert.Equal(t, []string{"api.fetchUser", "normalize"}, load.Calls)

	helper := findFunction(t, res, "helper")
	assert.Equal(t, "arrow", helper.FunctionType)
	assert.Equal(t, []string{"a", "b"}, helper.Parameters)
	assert.Equal(t, 2, helper.Complexity)

	require.Len(t, res.Classes, 1)
	store := res.Classes[0]
	assert.Equal(t, "UserStore", store.Name)
	assert.Equal(t, []string{"BaseStore"}, store.Bases)
	assert.Equal(t, []string{"Disposable", "Loggable"}, store.Implements)
	assert.Equal(t, []string{"constructor", "refresh"}, store.Methods)
	assert.True(t, store.IsExported)

	refresh := findFunction(t, res, "refresh")
	assert.True(t, refresh.IsMethod)
	assert.Equal(t, "UserStore", refresh.ParentClass)
	assert.Equal(t, []string{"this.update"}, refresh.Calls)

	profile := findFunction(t, res, "Profile")
	assert.Equal(t, []string{"helper"}, profile.Calls)

	require.Len(t, res.Components, 0, "Profile is already a declared function")
}

func TestScriptLexicalComponents(t *testing.T) {
	code := `const Card = (props) => {
  if (!props.visible) {
    return null;
  }
  return <div>{props.title}</div>;
};

export default Card;
export default Hidden;
`
	res := NewScriptLexicalExtractor().Extract(context.Background(), "Card.jsx", []byte(code))
	require.Len(t, res.Components, 0)

	code = `export default Banner
  return <section />
`
	res = NewScriptLexicalExtractor().Extract(context.Background(), "Banner.jsx", []byte(code))
	require.Len(t, res.Components, 1)
	assert.Equal(t, ComponentEntity{
		Name:            "Banner",
		FilePath:        "Banner.jsx",
		Line:            1,
		ComponentType:   "function_component",
		IsDefaultExport: true,
	}, res.Components[0])
}

func TestScriptLexicalParameterPropertiesAndOrder(t *testing.T) {
	code := `function before() {
  return 1;
}

class Repo {
  constructor(private readonly db: Db, public name = "x", protected ttl?: number) {
    this.db = db;
  }
}

function after(...rest: string[]) {
  return rest;
}
`
	res := NewScriptLexicalExtractor().Extract(context.Background(), "repo.ts", []byte(code))

	var names []string
	for i, fn := range res.Functions {
		names = append(names, fn.Name)
		if i > 0 {
			assert.LessOrEqual(t, res.Functions[i-1].LineStart, fn.LineStart)
		}
	}
	assert.Equal(t, []string{"before", "constructor", "after"}, names)

	ctor := findFunction(t, res, "constructor")
	assert.Equal(t, []string{"db", "name", "ttl"}, ctor.Parameters)
	assert.Equal(t, "Repo", ctor.ParentClass)
	assert.Equal(t, []string{"rest"}, findFunction(t, res, "after").Parameters)
}

func TestScriptTreeExtractor(t *testing.T) {
	p := newTestParser(t, map[string]string{".tsx": FrontendScriptTree, ".js": FrontendScriptTree})
	res := parse(t, p, "web/profile.tsx", scriptFixture)
	require.Empty(t, res.ParseErrors)

	require.Len(t, res.Imports, 4)
	assert.Equal(t, []string{"useState"}, res.Imports[0].Names)
	assert.Equal(t, "React", res.Imports[0].Alias)
	assert.True(t, res.Imports[1].IsTypeImport)
	assert.Equal(t, []string{"*"}, res.Imports[2].Names)

	load := findFunction(t, res, "loadUser")
	assert.True(t, load.IsExported)
	assert.True(t, load.IsAsync)
	assert.Equal(t, []string{"id", "opts"}, load.Parameters)
	assert.Equal(t, "Promise<User>", load.ReturnType)
	assert.Equal(t, 3, load.Complexity)
	assert.Equal(t, []string{"api.fetchUser", "normalize"}, load.Calls)

	helper := findFunction(t, res, "helper")
	assert.Equal(t, "arrow", helper.FunctionType)
	assert.Equal(t, 2, helper.Complexity)

	require.Len(t, res.Classes, 1)
	assert.Equal(t, []string{"BaseStore"}, res.Classes[0].Bases)
	assert.Equal(t, []string{"Disposable", "Loggable"}, res.Classes[0].Implements)
	assert.Equal(t, []string{"constructor", "refresh"}, res.Classes[0].Methods)

	refresh := findFunction(t, res, "refresh")
	assert.Equal(t, "UserStore", refresh.ParentClass)
	assert.Equal(t, []string{"this.update"}, refresh.Calls)

	require.Len(t, res.Components, 1)
	assert.Equal(t, "Profile", res.Components[0].Name)

	broken := parse(t, p, "broken.js", "function (\n")
	require.Len(t, broken.ParseErrors, 1)
	assert.Empty(t, broken.Functions)
}
