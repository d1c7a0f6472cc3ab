package sail

import (
	"fmt"
)

// Namespace prefixes live as properties on a single reference vertex, one
// property per prefix. The reserved "value" property identifies the vertex
// itself and is never a usable prefix.

// SetNamespace maps a prefix to a namespace IRI, replacing any previous
// mapping.
func (c *Connection) SetNamespace(prefix, name string) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if prefix == propValue {
		return fmt.Errorf("%w: %q", ErrReservedPrefix, prefix)
	}
	if err := c.store.begin(); err != nil {
		return err
	}
	if err := c.store.nsVertex.SetProperty(prefix, name); err != nil {
		return fmt.Errorf("sail: set namespace: %w", err)
	}
	return nil
}

// GetNamespace returns the IRI mapped to prefix, or "" when unset.
func (c *Connection) GetNamespace(prefix string) (string, error) {
	if err := c.ensureOpen(); err != nil {
		return "", err
	}
	if prefix == propValue {
		return "", nil
	}
	name, _ := c.store.nsVertex.Property(prefix)
	return name, nil
}

// RemoveNamespace deletes a prefix mapping. Removing an unset prefix is not
// an error.
func (c *Connection) RemoveNamespace(prefix string) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if prefix == propValue {
		return fmt.Errorf("%w: %q", ErrReservedPrefix, prefix)
	}
	if err := c.store.begin(); err != nil {
		return err
	}
	if err := c.store.nsVertex.RemoveProperty(prefix); err != nil {
		return fmt.Errorf("sail: remove namespace: %w", err)
	}
	return nil
}

// Namespaces enumerates all prefix mappings, skipping the vertex's reserved
// identifier property.
func (c *Connection) Namespaces() (map[string]string, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	keys, err := c.store.nsVertex.PropertyKeys()
	if err != nil {
		return nil, fmt.Errorf("sail: list namespaces: %w", err)
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if k == propValue {
			continue
		}
		if v, ok := c.store.nsVertex.Property(k); ok {
			out[k] = v
		}
	}
	return out, nil
}
