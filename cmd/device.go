package cmd

import (
	"fmt"

	"github.com/smazurov/camcap/internal/devices"
	"github.com/spf13/cobra"
)

// DeviceFunc returns the --device value once options have been loaded.
type DeviceFunc func() string

// openDevice resolves and opens the node named by the --device flag.
func openDevice(device string) (devices.Handle, error) {
	path, err := devices.ResolveDevicePath(device)
	if err != nil {
		return nil, err
	}
	dev, err := devices.OpenV4L2(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	return dev, nil
}

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd(device DeviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List pixel formats and frame sizes",
		Long:  `Enumerates every pixel format a capture device offers together with the frame sizes accepted for each one.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			dev, err := openDevice(device())
			if err != nil {
				return err
			}
			defer dev.Close()
			return PrintFormats(c.OutOrStdout(), dev)
		},
	}
}

// CreateCapsCmd creates the caps command.
func CreateCapsCmd(device DeviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "caps",
		Short: "Show device capabilities",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			dev, err := openDevice(device())
			if err != nil {
				return err
			}
			defer dev.Close()

			caps, err := dev.QueryCapabilities()
			if err != nil {
				return fmt.Errorf("failed to query capabilities: %w", err)
			}
			PrintCapabilities(c.OutOrStdout(), caps)
			return nil
		},
	}
}

// CreatePixfmtsCmd creates the pixfmts command.
func CreatePixfmtsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pixfmts",
		Short: "List known pixel format names",
		Long:  `Prints the pixel format names accepted by --format, with their FourCC codes. Any four-character code is also accepted.`,
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			PrintPixelFormats(c.OutOrStdout())
		},
	}
}

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List video capture devices",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			found, err := devices.FindDevices()
			if err != nil {
				return err
			}
			PrintDevices(c.OutOrStdout(), found)
			return nil
		},
	}
}
