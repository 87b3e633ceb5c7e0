// Package objectstore emits per-connector bucket policies and checks bucket
// reachability on the S3-compatible object store.
package objectstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Policy is an S3 IAM-style policy document.
type Policy struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is a single policy statement.
type Statement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// BucketName returns the bucket owned by a connector.
func BucketName(dataspace, connector string) string {
	return dataspace + "-" + connector
}

// PolicyPath returns the location of a connector policy file.
func PolicyPath(root, env, dataspace, connector string) string {
	return filepath.Join(root, "deployments", env, dataspace,
		fmt.Sprintf("policy-%s-%s.json", dataspace, connector))
}

// ConnectorPolicy grants full access to the connector bucket and its objects.
func ConnectorPolicy(dataspace, connector string) Policy {
	arn := "arn:aws:s3:::" + BucketName(dataspace, connector)
	return Policy{
		Version: "2012-10-17",
		Statement: []Statement{{
			Effect:   "Allow",
			Action:   []string{"s3:*"},
			Resource: []string{arn, arn + "/*"},
		}},
	}
}

// WritePolicy writes the connector policy to path as indented JSON.
func WritePolicy(path, dataspace, connector string) error {
	body, err := json.MarshalIndent(ConnectorPolicy(dataspace, connector), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create policy directory: %w", err)
	}
	if err := os.WriteFile(path, append(body, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write policy %s: %w", path, err)
	}
	return nil
}
