package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"multibox/entity"
	"multibox/offset"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Interactive memory inspector over the first running client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			res, err := newResolver(cfg, table)
			if err != nil {
				return err
			}
			mem, err := attachFirst(cfg)
			if err != nil {
				return err
			}
			defer mem.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[OK] attached pid %d, %s base 0x%X\n", mem.PID(), mem.Module(), mem.ModuleBase())
			newInspector(mem, res, out).repl(cmd.InOrStdin())
			return nil
		},
	}
}

// maxDump é o maior tamanho aceito por dump
const maxDump = 64 << 10

type inspectMemory interface {
	entity.Memory
	ReadBytes(addr uintptr, n int) ([]byte, bool)
}

type inspector struct {
	mem  inspectMemory
	res  *offset.Resolver
	snap *entity.Snapshot
	out  io.Writer
}

func newInspector(mem inspectMemory, res *offset.Resolver, out io.Writer) *inspector {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &inspector{mem: mem, res: res, snap: entity.NewSnapshot(mem, res, log), out: out}
}

const inspectHelp = `Commands:
  read32 <addr>          - Read DWORD at address
  readf <addr>           - Read float at address
  ptr <addr> [off...]    - Follow 64-bit pointer chain
  path <name>            - Resolve a path from the offset table
  dump <addr> [size]     - Hex dump memory (default size=256, max 65536)
  world                  - List loot and people around the character
  mod <offset>           - Read DWORD at module base + offset
  help                   - Show this help
  exit                   - Exit
Addresses are hex (0x...) or decimal`

func (in *inspector) repl(r io.Reader) {
	fmt.Fprintln(in.out, inspectHelp)
	sc := bufio.NewScanner(r)
	for {
		fmt.Fprint(in.out, "> ")
		if !sc.Scan() {
			return
		}
		if !in.exec(strings.Fields(sc.Text())) {
			return
		}
	}
}

// exec roda um comando. Retorna false para sair.
func (in *inspector) exec(parts []string) bool {
	if len(parts) == 0 {
		return true
	}
	switch strings.ToLower(parts[0]) {
	case "exit", "quit", "q":
		return false

	case "help", "h", "?":
		fmt.Fprintln(in.out, inspectHelp)

	case "read32":
		addr, ok := in.args(parts, 2, "read32 <addr>")
		if !ok {
			break
		}
		v, ok := in.mem.ReadU32(uintptr(addr[0]))
		if !ok {
			fmt.Fprintf(in.out, "0x%X unreadable\n", addr[0])
			break
		}
		fmt.Fprintf(in.out, "0x%X = %d (0x%08X)\n", addr[0], v, v)

	case "readf":
		addr, ok := in.args(parts, 2, "readf <addr>")
		if !ok {
			break
		}
		v, ok := in.mem.ReadF32(uintptr(addr[0]))
		if !ok {
			fmt.Fprintf(in.out, "0x%X unreadable\n", addr[0])
			break
		}
		fmt.Fprintf(in.out, "0x%X = %f\n", addr[0], v)

	case "ptr":
		nums, ok := in.args(parts, 2, "ptr <addr> [off1] [off2] ...")
		if !ok {
			break
		}
		in.chain(nums[0], nums[1:])

	case "path":
		if len(parts) < 2 {
			fmt.Fprintln(in.out, "Usage: path <name>")
			break
		}
		in.path(parts[1])

	case "dump":
		nums, ok := in.args(parts, 2, "dump <addr> [size]")
		if !ok {
			break
		}
		size := uint64(256)
		if len(nums) > 1 {
			size = nums[1]
		}
		if size > maxDump {
			fmt.Fprintf(in.out, "size clamped to %d\n", maxDump)
			size = maxDump
		}
		in.dump(uintptr(nums[0]), int(size))

	case "world":
		in.world()

	case "mod":
		nums, ok := in.args(parts, 2, "mod <offset>")
		if !ok {
			break
		}
		addr := in.mem.ModuleBase() + uintptr(nums[0])
		v, ok := in.mem.ReadU32(addr)
		if !ok {
			fmt.Fprintf(in.out, "%s+0x%X unreadable\n", in.mem.Module(), nums[0])
			break
		}
		fmt.Fprintf(in.out, "%s+0x%X (0x%X) = %d (0x%08X)\n", in.mem.Module(), nums[0], addr, v, v)

	default:
		fmt.Fprintf(in.out, "Unknown command: %s\n", parts[0])
	}
	return true
}

// args converte os argumentos numéricos; n conta o próprio comando
func (in *inspector) args(parts []string, n int, usage string) ([]uint64, bool) {
	if len(parts) < n {
		fmt.Fprintln(in.out, "Usage: "+usage)
		return nil, false
	}
	out := make([]uint64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		v, err := parseAddr(p)
		if err != nil {
			fmt.Fprintf(in.out, "bad number %q\n", p)
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func parseAddr(s string) (uint64, error) {
	s = strings.ToLower(s)
	if strings.HasPrefix(s, "0x") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func (in *inspector) chain(addr uint64, offs []uint64) {
	fmt.Fprintf(in.out, "Base: 0x%X\n", addr)
	for _, off := range offs {
		p, ok := in.mem.ReadU64(uintptr(addr))
		if !ok || p == 0 {
			fmt.Fprintf(in.out, "  +0x%X -> NULL (chain broken)\n", off)
			return
		}
		addr = p + off
		fmt.Fprintf(in.out, "  +0x%X -> 0x%X\n", off, addr)
	}
	if v, ok := in.mem.ReadU32(uintptr(addr)); ok {
		fmt.Fprintf(in.out, "Final value: %d (0x%08X)\n", v, v)
	}
}

func (in *inspector) path(name string) {
	if _, ok := in.res.Table().Lookup(name); !ok {
		fmt.Fprintf(in.out, "unknown path %q\n", name)
		return
	}
	in.snap.Refresh()
	v, ok := in.res.Resolve(in.mem, name, in.snap.Cache())
	if !ok {
		fmt.Fprintf(in.out, "[FAIL] %s = %s\n", name, in.res.Table().Source(name))
		return
	}
	fmt.Fprintf(in.out, "%s = %s\n", name, v)
	for i, e := range v.Elements {
		fmt.Fprintf(in.out, "  [%d] 0x%X", i, e.Ptr)
		for _, f := range sortedFields(e) {
			fmt.Fprintf(in.out, " %s=%s", f, e.Fields[f])
		}
		fmt.Fprintln(in.out)
	}
}

func sortedFields(e offset.Element) []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (in *inspector) world() {
	in.snap.Refresh()
	w := in.snap.World()
	loot := w.Loot()
	fmt.Fprintf(in.out, "loot: %d (count %d)\n", len(loot), w.LootCount())
	for _, l := range loot {
		fmt.Fprintf(in.out, "  [LOOT] 0x%X x=%.1f y=%.1f\n", l.Ptr, l.X, l.Y)
	}
	people := w.People()
	fmt.Fprintf(in.out, "people: %d\n", len(people))
	for _, p := range people {
		fmt.Fprintf(in.out, "  [PEOPLE] 0x%X id=%d x=%.1f y=%.1f z=%.1f\n", p.Ptr, p.ID, p.X, p.Y, p.Z)
	}
}

func (in *inspector) dump(addr uintptr, size int) {
	data, ok := in.mem.ReadBytes(addr, size)
	if !ok {
		fmt.Fprintf(in.out, "0x%X unreadable\n", addr)
		return
	}
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(in.out, "0x%08X: ", addr+uintptr(i))
		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Fprintf(in.out, "%02X ", data[i+j])
			} else {
				fmt.Fprint(in.out, "   ")
			}
			if j == 7 {
				fmt.Fprint(in.out, " ")
			}
		}
		fmt.Fprint(in.out, " |")
		for j := 0; j < 16 && i+j < len(data); j++ {
			if b := data[i+j]; b >= 32 && b < 127 {
				fmt.Fprintf(in.out, "%c", b)
			} else {
				fmt.Fprint(in.out, ".")
			}
		}
		fmt.Fprintln(in.out, "|")
	}
}
