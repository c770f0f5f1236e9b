package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipcqueue/internal/queue"
)

func newPosixCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posix",
		Short: "Work with POSIX message queues (priority ordered)",
	}
	cmd.AddCommand(newPosixSendCommand(ctx))
	cmd.AddCommand(newPosixRecvCommand(ctx))
	cmd.AddCommand(newPosixStatCommand(ctx))
	cmd.AddCommand(newPosixUnlinkCommand(ctx))
	return cmd
}

func newPosixSendCommand(ctx *commandContext) *cobra.Command {
	var (
		wait     waitFlags
		priority int64
		codecArg string
	)
	cmd := &cobra.Command{
		Use:   "send NAME [MESSAGE...]",
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
			q, err := ctx.openPosix(args[0], codecArg)
			if err != nil {
				return err
			}
			defer q.Close()
			return q.Put(encodeValue(q.Codec(), body), wait.mode(), priority)
		},
	}
	wait.register(cmd)
	cmd.Flags().Int64VarP(&priority, "priority", "p", 0, "Message priority; higher is delivered first")
	cmd.Flags().StringVar(&codecArg, "codec", "", "Codec override (gob, json, raw)")
	return cmd
}

func newPosixRecvCommand(ctx *commandContext) *cobra.Command {
	var (
		wait     waitFlags
		count    int
		codecArg string
	)
	cmd := &cobra.Command{
		Use:   "recv NAME",
		Short: "Receive messages, highest priority first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wait.validate(); err != nil {
				return err
			}
			q, err := ctx.openPosix(args[0], codecArg)
			if err != nil {
				return err
			}
			defer q.Close()
			return receive(cmd, q, q.Codec(), wait, 0, count)
		},
	}
	wait.register(cmd)
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of messages to receive")
	cmd.Flags().StringVar(&codecArg, "codec", "", "Codec override (gob, json, raw)")
	return cmd
}

func newPosixStatCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stat NAME",
		Short: "Show queue attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.openPosix(args[0], "")
			if err != nil {
				return err
			}
			defer q.Close()
			attr, err := q.Attributes()
			if err != nil {
				return err
			}
			return writeStat(cmd, statReport{Backend: queue.BackendPosix, Queue: q.Name(), Attributes: attr}, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newPosixUnlinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink NAME",
		Short: "Remove the queue's name from the system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := ctx.posixSpec(args[0])
			if err != nil {
				return err
			}
			if err := queue.UnlinkPosix(spec.Name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlinked %s\n", spec.Name)
			return nil
		},
	}
}
