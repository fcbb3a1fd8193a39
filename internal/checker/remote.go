package checker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	git "github.com/go-git/go-git/v6"
)

// ScanRemote shallow-clones a repository into a temporary directory, scans
// it like a local project, and removes the clone afterwards. The returned
// result reports the repository URL as the project path: the temp dir is
// an implementation detail and is gone by the time the caller sees it.
func (c *Checker) ScanRemote(ctx context.Context, repoURL string) (*ScanResult, error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}

	tmpDir, err := os.MkdirTemp("", "scan-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	start := time.Now()
	c.logger.Info("Cloning repository for scan", "url", repoURL)

	// Depth 1 on a single branch: the scan only needs the current tree,
	// never history.
	_, err = git.PlainCloneContext(ctx, tmpDir, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}
	c.logger.LogPerformance("clone_repository", start)

	res, err := c.ScanProject(tmpDir)
	if err != nil {
		return nil, err
	}
	res.ProjectPath = repoURL
	return res, nil
}
