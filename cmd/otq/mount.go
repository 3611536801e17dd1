// mount.go is cmd/otq's mount subcommand: it projects the result of a
// path expression as a read-only filesystem, backed by internal/mount's
// cgofuse/go-nfs dual backend. Grounded on the teacher's rootCmd's
// mount-point handling and its --backend nfs|fuse selection in
// cmd/mount.go (darwin defaults to nfs, everything else to fuse).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/otquery/internal/mount"
	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/eval"
	"github.com/agentic-research/otquery/path/parser"
)

var mountBackend string

func init() {
	defaultBackend := "fuse"
	if runtime.GOOS == "darwin" {
		defaultBackend = "nfs"
	}
	mountCmd.Flags().StringVar(&mountBackend, "backend", defaultBackend, "Mount backend: nfs or fuse")
}

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint> [path-expression]",
	Short: "Mount a path expression's result as a read-only filesystem",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]
		pathExpr := "$"
		if len(args) > 1 {
			pathExpr = args[1]
		}

		root, err := resolveSource(optRemote)
		if err != nil {
			return err
		}
		p, err := parser.ParseString(pathExpr)
		if err != nil {
			return fmt.Errorf("otq mount: %w", err)
		}
		result := eval.Run(root, p, root)

		if err := os.MkdirAll(mountPoint, 0o755); err != nil {
			return fmt.Errorf("otq mount: create mount point %s: %w", mountPoint, err)
		}

		switch mountBackend {
		case "fuse":
			return runFUSEMount(result, mountPoint)
		case "nfs":
			return runNFSMount(result, mountPoint)
		default:
			return fmt.Errorf("otq mount: unknown backend %q (want nfs or fuse)", mountBackend)
		}
	},
}

func runFUSEMount(root ot.Node, mountPoint string) error {
	fmt.Printf("Mounting otq at %s (FUSE)...\n", mountPoint)
	return mount.Mount(root, mountPoint)
}

func runNFSMount(root ot.Node, mountPoint string) error {
	fs := mount.NewOTFS(root)
	srv, err := mount.NewServer(fs)
	if err != nil {
		return fmt.Errorf("otq mount: start NFS server: %w", err)
	}
	defer srv.Close()

	fmt.Printf("Mounting otq at %s (NFS on localhost:%d)...\n", mountPoint, srv.Port())
	if err := mount.MountNFS(srv.Port(), mountPoint); err != nil {
		return err
	}
	fmt.Printf("Mounted. Press Ctrl-C to unmount.\n")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Printf("\nUnmounting %s...\n", mountPoint)
	if err := mount.UnmountNFS(mountPoint); err != nil {
		fmt.Printf("Warning: unmount failed: %v\n", err)
		fmt.Printf("Run manually: sudo umount %s\n", mountPoint)
	}
	return nil
}
