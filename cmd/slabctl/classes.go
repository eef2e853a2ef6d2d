package main

import (
	"fmt"

	"github.com/joshuapare/slabheap/slab"
	"github.com/spf13/cobra"
)

var (
	classGranularity int64
	classSmallmax    int64
	classMaxblock    int64
	classPoolsize    int64
)

func init() {
	cmd := newClassesCmd()
	cmd.Flags().Int64Var(&classGranularity, "granularity", 16, "Linear phase size quantum")
	cmd.Flags().Int64Var(&classSmallmax, "smallmax", 512, "Largest linear-phase block size")
	cmd.Flags().Int64Var(&classMaxblock, "maxblock", 8192, "Largest pooled block size")
	cmd.Flags().Int64Var(&classPoolsize, "poolsize", 65536, "Pool size in bytes")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Print the size-class table for a configuration",
		Long: `The classes command builds the size-class table for the given
configuration and prints one row per class: the block size, how many
blocks fit in one pool, the unusable pool tail, and the worst-case
fraction of a block wasted on rounding.

Example:
  slabctl classes
  slabctl classes --granularity 32 --smallmax 256
  slabctl classes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
	return cmd
}

type ClassRow struct {
	Class         int
	BlockSize     int64
	BlocksPerPool int64
	PoolTailBytes int64
	WorstWastePct float64
}

type ClassTable struct {
	Granularity int64
	Smallmax    int64
	Maxblock    int64
	Poolsize    int64
	Classes     []ClassRow
}

func runClasses() error {
	setts := slab.Defaultsettings()
	setts["granularity"] = classGranularity
	setts["smallmax"] = classSmallmax
	setts["maxblock"] = classMaxblock
	setts["poolsize"] = classPoolsize

	printVerbose("Building class table for granularity=%d smallmax=%d maxblock=%d\n",
		classGranularity, classSmallmax, classMaxblock)

	al, err := slab.New("classes", setts)
	if err != nil {
		return fmt.Errorf("failed to build class table: %w", err)
	}
	defer al.Close()

	table := ClassTable{
		Granularity: classGranularity,
		Smallmax:    classSmallmax,
		Maxblock:    classMaxblock,
		Poolsize:    classPoolsize,
	}
	minServed := int64(1)
	for c, cs := range al.Stats().Classes {
		bs := cs.BlockSize
		table.Classes = append(table.Classes, ClassRow{
			Class:         c,
			BlockSize:     bs,
			BlocksPerPool: classPoolsize / bs,
			PoolTailBytes: classPoolsize % bs,
			WorstWastePct: float64(bs-minServed) * 100 / float64(bs),
		})
		minServed = bs + 1
	}

	// Output as JSON if requested
	if jsonOut {
		return printJSON(table)
	}

	// Text output
	printInfo("\nSize Classes (granularity %d, smallmax %d, maxblock %d, poolsize %d):\n\n",
		classGranularity, classSmallmax, classMaxblock, classPoolsize)
	printInfo("  %5s %10s %13s %10s %11s\n", "CLASS", "BLOCK", "BLOCKS/POOL", "TAIL", "WORST FIT")
	for _, row := range table.Classes {
		printInfo("  %5d %10d %13d %10d %10.1f%%\n",
			row.Class, row.BlockSize, row.BlocksPerPool, row.PoolTailBytes, row.WorstWastePct)
	}
	printInfo("\n%d classes; requests above %d bytes bypass the pools\n",
		len(table.Classes), classMaxblock)

	return nil
}
