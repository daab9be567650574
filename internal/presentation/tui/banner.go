package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for Espalier with the version
// right-aligned underneath.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Emerald/Sky)
	s1 := termenv.String("                          _  _").Foreground(p.Color("#4ade80"))
	s2 := termenv.String("  ___  ___ _ __    __ _ | |(_)  ___  _ __").Foreground(p.Color("#34d399"))
	s3 := termenv.String(" / _ \\/ __|| '_ \\  / _` || || | / _ \\| '__|").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String("|  __/\\__ \\| |_) || (_| || || ||  __/| |").Foreground(p.Color("#22d3ee"))
	s5 := termenv.String(" \\___||___/| .__/  \\__,_||_||_| \\___||_|").Foreground(p.Color("#38bdf8"))
	s6 := termenv.String("           |_|").Foreground(p.Color("#60a5fa"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	if version != "" {
		fmt.Println(termenv.String(fmt.Sprintf("%43s", "v"+version)).Faint())
	}
	fmt.Println()
}
