// Command rvgo32 boots a kernel and disk image on the RV32IMA core in
// internal/emulator, wiring its UART to the host terminal.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"rvgo32/internal/emulator"
	"rvgo32/internal/term"
)

func main() {
	if err := run(); err != nil {
		slog.Error("rvgo32 exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	kernelPath := flag.String("kernel", "", "path to the raw kernel image, loaded at DRAM_BASE")
	diskPath := flag.String("disk", "", "path to the raw disk image backing virtio-blk")
	memMiB := flag.Uint("mem", 128, "DRAM size in MiB")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *kernelPath == "" {
		return fmt.Errorf("-kernel is required")
	}

	kernel, err := os.ReadFile(*kernelPath)
	if err != nil {
		return fmt.Errorf("reading kernel image: %w", err)
	}

	var disk []byte
	if *diskPath != "" {
		disk, err = os.ReadFile(*diskPath)
		if err != nil {
			return fmt.Errorf("reading disk image: %w", err)
		}
	}

	machine := emulator.NewMachine(kernel, disk, uint32(*memMiB)*1024*1024)
	machine.Uart().OnOutput(term.WriteByte)

	console, err := term.NewConsole()
	if err != nil {
		return fmt.Errorf("entering raw terminal mode: %w", err)
	}
	defer console.Restore()

	go func() {
		_ = console.ReadLoop(machine.Uart().PushByte)
	}()

	slog.Info("rvgo32 starting", "kernel", *kernelPath, "disk", *diskPath, "mem_mib", *memMiB)

	for {
		halted, trap := machine.Step()
		if trap != nil {
			slog.Debug("trap", "cause", trap.Cause, "interrupt", trap.IsInterrupt, "tval", trap.Tval)
		}
		if halted {
			return fmt.Errorf("machine halted on fatal trap: cause=%v tval=%#x", trap.Cause, trap.Tval)
		}
	}
}
