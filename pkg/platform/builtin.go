package platform

import (
	"embed"
	"fmt"
)

// Built-in platform names.
const (
	Linux              = "linux"
	LinuxX64X11        = "linux-x64x11"
	LinuxX64X11Clang39 = "linux-x64x11-clang-3-9"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Default holds the built-in platform configurations.
var Default = NewRegistry()

func init() {
	Default.Register(Base{}.Name(), func(*Registry) (Configuration, error) { return Base{}, nil })
	Default.Register(Linux, Extend(Linux, Base{}.Name(), Tables{}))
	Default.Register(LinuxX64X11, Extend(LinuxX64X11, Linux, Tables{}))
	Default.Register(LinuxX64X11Clang39, Extend(LinuxX64X11Clang39, LinuxX64X11, mustTables(LinuxX64X11Clang39)))
}

// mustTables parses the embedded layer data for name. The data ships with
// the binary, so a parse failure is a programming error.
func mustTables(name string) Tables {
	data, err := dataFS.ReadFile("data/" + name + ".yaml")
	if err != nil {
		panic(fmt.Sprintf("platform %s: %v", name, err))
	}
	tables, err := ParseTables(data)
	if err != nil {
		panic(fmt.Sprintf("platform %s: %v", name, err))
	}
	return tables
}

// Lookup returns a built-in platform configuration.
func Lookup(name string) (Configuration, error) {
	return Default.Lookup(name)
}
