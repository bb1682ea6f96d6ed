package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const v4lLinkRoot = "/dev/v4l"

// ResolveDevicePath turns a --device value into a node path. Paths are
// returned as given; anything else is looked up as a stable ID under
// /dev/v4l/by-id and /dev/v4l/by-path, so a camera keeps its name across
// reboots and replugging.
func ResolveDevicePath(device string) (string, error) {
	return resolveDevicePath(v4lLinkRoot, device)
}

func resolveDevicePath(root, device string) (string, error) {
	if device == "" {
		return "", fmt.Errorf("no device given")
	}
	if strings.ContainsRune(device, os.PathSeparator) {
		return device, nil
	}

	for _, dir := range []string{"by-id", "by-path"} {
		candidate := filepath.Join(root, dir, device)
		if _, err := os.Lstat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Bare node names such as "video0"
	if strings.HasPrefix(device, "video") {
		return "/dev/" + device, nil
	}

	return "", fmt.Errorf("no stable symlink found for device ID: %s", device)
}

// ExpectedDevicePath is where a --device value will appear once the node
// exists. It does not touch the filesystem.
func ExpectedDevicePath(device string) string {
	return expectedDevicePath(v4lLinkRoot, device)
}

func expectedDevicePath(root, device string) string {
	switch {
	case strings.ContainsRune(device, os.PathSeparator):
		return device
	case strings.HasPrefix(device, "video"):
		return "/dev/" + device
	case strings.HasPrefix(device, "platform-"):
		return filepath.Join(root, "by-path", device)
	default:
		return filepath.Join(root, "by-id", device)
	}
}
