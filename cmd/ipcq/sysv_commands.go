package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipcqueue/internal/queue"
)

func newSysVCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sysv",
		Short: "Work with System V message queues (type selected)",
		Long: "Work with System V message queues (type selected).\n\n" +
			"TARGET is an alias from the config file or a numeric key such as 0x1e240.",
	}
	cmd.AddCommand(newSysVSendCommand(ctx))
	cmd.AddCommand(newSysVRecvCommand(ctx))
	cmd.AddCommand(newSysVStatCommand(ctx))
	cmd.AddCommand(newSysVRemoveCommand(ctx))
	return cmd
}

func newSysVSendCommand(ctx *commandContext) *cobra.Command {
	var (
		wait     waitFlags
		mtype    int64
		codecArg string
	)
	cmd := &cobra.Command{
		Use:   "send TARGET [MESSAGE...]",
		Short: "Send a message; reads stdin when no message is given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wait.validate(); err != nil {
				return err
			}
			body, err := messageBody(cmd, args[1:])
			if err != nil {
				return err
			}
			q, err := ctx.openSysV(args[0], codecArg)
			if err != nil {
				return err
			}
			defer q.Close()
			return q.Put(encodeValue(q.Codec(), body), wait.mode(), mtype)
		},
	}
	wait.register(cmd)
	cmd.Flags().Int64VarP(&mtype, "type", "t", queue.DefaultSysVType, "Message type; must be positive")
	cmd.Flags().StringVar(&codecArg, "codec", "", "Codec override (gob, json, raw)")
	return cmd
}

func newSysVRecvCommand(ctx *commandContext) *cobra.Command {
	var (
		wait     waitFlags
		selector int64
		count    int
		codecArg string
	)
	cmd := &cobra.Command{
		Use:   "recv TARGET",
		Short: "Receive messages matching a type selector",
		Long: "Receive messages matching a type selector.\n\n" +
			"--type 0 takes the oldest message, a positive type the oldest of that type,\n" +
			"and a negative type the oldest of the lowest type not above its absolute value.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wait.validate(); err != nil {
				return err
			}
			q, err := ctx.openSysV(args[0], codecArg)
			if err != nil {
				return err
			}
			defer q.Close()
			return receive(cmd, q, q.Codec(), wait, selector, count)
		},
	}
	wait.register(cmd)
	cmd.Flags().Int64VarP(&selector, "type", "t", 0, "Type selector")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of messages to receive")
	cmd.Flags().StringVar(&codecArg, "codec", "", "Codec override (gob, json, raw)")
	return cmd
}

func newSysVStatCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stat TARGET",
		Short: "Show queue attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.openSysV(args[0], "")
			if err != nil {
				return err
			}
			defer q.Close()
			attr, err := q.Attributes()
			if err != nil {
				return err
			}
			label := fmt.Sprintf("0x%08x", q.Key())
			return writeStat(cmd, statReport{Backend: queue.BackendSysV, Queue: label, Attributes: attr}, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSysVRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm TARGET",
		Short: "Remove the queue from the system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := ctx.sysvSpec(args[0])
			if err != nil {
				return err
			}
			if err := queue.DestroySysV(spec.Key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed 0x%08x\n", spec.Key)
			return nil
		},
	}
}
