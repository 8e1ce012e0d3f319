// Package templates holds the provisioning template bodies the seeder stores.
// The bodies are ERB rendered by the management system, not by this program.
package templates

import (
	"embed"
	"fmt"
)

//go:embed files/*.erb
var files embed.FS

func mustRead(name string) string {
	data, err := files.ReadFile("files/" + name)
	if err != nil {
		panic(fmt.Sprintf("templates: missing embedded %s: %v", name, err))
	}
	return string(data)
}

var (
	kickstart      = mustRead("kickstart.erb")
	pxelinux       = mustRead("pxelinux.erb")
	partitionTable = mustRead("ptable.erb")
)

// Kickstart returns the provision template body.
func Kickstart() string { return kickstart }

// PXELinux returns the PXELinux boot menu template body.
func PXELinux() string { return pxelinux }

// PartitionTable returns the partition table layout.
func PartitionTable() string { return partitionTable }
