//go:build windows

package util

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleProcessList = kernel32.NewProc("GetConsoleProcessList")
)

// LaunchedFromDesktop reports whether wiituio was started by
// double-click: the console belongs to this process alone and the
// parent is the Explorer shell.
func LaunchedFromDesktop() bool {
	pids := make([]uint32, 4)
	n, _, _ := procGetConsoleProcessList.Call(uintptr(unsafe.Pointer(&pids[0])), uintptr(len(pids)))
	parent := parentProcessName()
	slog.Debug("Launch info", "parent", parent, "consoleProcesses", n)
	if n > 1 {
		return false
	}
	return strings.EqualFold(parent, "explorer.exe")
}

// WaitForEnter keeps a desktop-launched console open until Enter is pressed.
func WaitForEnter() {
	fmt.Print("Press Enter to exit...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}

func parentProcessName() string {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snapshot)

	names := map[uint32]string{}
	parents := map[uint32]uint32{}

	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	for err = windows.Process32First(snapshot, &pe); err == nil; err = windows.Process32Next(snapshot, &pe) {
		names[pe.ProcessID] = windows.UTF16ToString(pe.ExeFile[:])
		parents[pe.ProcessID] = pe.ParentProcessID
	}

	ppid, ok := parents[uint32(os.Getpid())]
	if !ok || ppid == 0 {
		return ""
	}
	return names[ppid]
}
