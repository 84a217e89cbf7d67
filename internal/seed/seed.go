// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package seed loads YAML seed files and registers the accounts they list.
//
// A seed file looks like:
//
//	version: "1.0"
//	users:
//	  - username: alice
//	    password: p1
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/idkit/identityd/internal/identity"
)

// SupportedVersions is the semver constraint seed files must satisfy.
const SupportedVersions = "^1"

// SchemaID is the $id of the generated seed schema.
const SchemaID = "https://github.com/idkit/identityd/schemas/seed.schema.json"

// File is a parsed seed file.
type File struct {
	Version string `yaml:"version" json:"version" jsonschema:"description=Seed format version; must satisfy ^1"`
	Users   []User `yaml:"users" json:"users" jsonschema:"description=Accounts to register in order"`
}

// User is one account to register.
type User struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GenerateSchema returns the JSON Schema describing seed files.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&File{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "identityd seed file"
	schema.Description = "Accounts registered by identityd seed"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").Wrap(err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("seed.schema.json", doc); err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").Wrap(err)
	}
	sch, err := c.Compile("seed.schema.json")
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").Wrap(err)
	}
	return sch, nil
})

// ValidateSchema checks YAML seed data against the generated schema.
func ValidateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("SEED_INVALID").Wrap(err)
	}

	// Round-trip through JSON so the validator sees json.Number and
	// map[string]any instead of YAML's native types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return oops.Code("SEED_INVALID").Wrap(err)
	}
	normalized, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code("SEED_INVALID").Wrap(err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(normalized); err != nil {
		return oops.Code("SEED_INVALID").With("operation", "validate schema").Wrap(err)
	}
	return nil
}

// Parse validates and decodes seed data.
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, oops.Code("SEED_INVALID").Errorf("seed data is empty")
	}
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrap(err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return f, nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return oops.Code("SEED_VERSION_UNSUPPORTED").With("version", version).Wrap(err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return oops.Code("SEED_VERSION_UNSUPPORTED").Wrap(err)
	}
	if !c.Check(v) {
		return oops.Code("SEED_VERSION_UNSUPPORTED").
			With("version", version).
			With("supported", SupportedVersions).
			Errorf("seed version %s is not supported", version)
	}
	return nil
}

// Registrar registers one account.
type Registrar interface {
	Register(ctx context.Context, username, password string) (*identity.User, error)
}

// Finder looks up existing accounts by username.
type Finder interface {
	FindByUsername(ctx context.Context, username string) ([]*identity.User, error)
}

// Result summarizes an Apply run.
type Result struct {
	Created int
	Skipped int
}

// Apply registers every user in f that does not already exist. A nil
// finder registers every entry unconditionally. Apply stops at the first
// failure; accounts registered before it stay registered.
func Apply(ctx context.Context, reg Registrar, finder Finder, f *File, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for i, u := range f.Users {
		if finder != nil {
			existing, err := finder.FindByUsername(ctx, u.Username)
			if err != nil {
				return res, oops.Code("SEED_FAILED").With("index", i).With("username", u.Username).Wrap(err)
			}
			if len(existing) > 0 {
				res.Skipped++
				logger.InfoContext(ctx, "seed user exists, skipping", "username", u.Username)
				continue
			}
		}

		user, err := reg.Register(ctx, u.Username, u.Password)
		if err != nil {
			return res, oops.Code("SEED_FAILED").With("index", i).With("username", u.Username).Wrap(err)
		}
		res.Created++
		logger.InfoContext(ctx, "seed user registered", "username", u.Username, "user_id", user.ID)
	}
	return res, nil
}
