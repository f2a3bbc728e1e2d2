// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/fatih/color"
)

// Logger is the user log of the cli process. Library code receives its own *UserLog.
var Logger *UserLog

type UserLog struct {
	log    logging.Logger
	Writer io.Writer
}

func NewUserLog(log logging.Logger, userwriter io.Writer) {
	if Logger == nil {
		Logger = New(log, userwriter)
	}
}

// New builds a user log writing to [userwriter] and mirroring every line into [log]
func New(log logging.Logger, userwriter io.Writer) *UserLog {
	if log == nil {
		log = logging.NoLog{}
	}
	if userwriter == nil {
		userwriter = os.Stdout
	}
	return &UserLog{
		log:    log,
		Writer: userwriter,
	}
}

// Discard returns a user log that prints nothing
func Discard() *UserLog {
	return New(logging.NoLog{}, io.Discard)
}

// PrintToUser prints msg directly on the screen, but also to log file
func (ul *UserLog) PrintToUser(msg string, args ...interface{}) {
	ul.print(fmt.Sprintf(msg, args...) + "\n")
}

func (ul *UserLog) print(msg string) {
	if ul != nil {
		fmt.Fprint(ul.Writer, msg)
		ul.log.Info(strings.TrimSuffix(msg, "\n"))
	} else {
		fmt.Print(msg)
	}
}

// Info prints to the log file
func (ul *UserLog) Info(msg string, args ...interface{}) {
	if ul == nil {
		return
	}
	ul.log.Info(fmt.Sprintf(msg, args...))
}

// Error prints to the log file
func (ul *UserLog) Error(msg string, args ...interface{}) {
	if ul == nil {
		return
	}
	ul.log.Error(fmt.Sprintf(msg, args...))
}

// GreenCheckmarkToUser prints a green checkmark to the user before the message
func (ul *UserLog) GreenCheckmarkToUser(msg string, args ...interface{}) {
	checkmark := "✓" // Unicode for checkmark symbol
	green := color.New(color.FgHiGreen).SprintFunc()
	ul.PrintToUser(green(checkmark)+" "+msg, args...)
}

func (ul *UserLog) RedXToUser(msg string, args ...interface{}) {
	xmark := "✗" // Unicode for X symbol
	red := color.New(color.FgHiRed).SprintFunc()
	ul.PrintToUser(red(xmark)+" "+msg, args...)
}

// WarningToUser is used for soft failures the run recovers from
func (ul *UserLog) WarningToUser(msg string, args ...interface{}) {
	yellow := color.New(color.FgHiYellow).SprintFunc()
	ul.PrintToUser(yellow("WARNING:")+" "+msg, args...)
}

// SkipToUser prints a dimmed notice for steps that were already done
func (ul *UserLog) SkipToUser(msg string, args ...interface{}) {
	faint := color.New(color.Faint).SprintFunc()
	ul.PrintToUser(faint("-")+" "+msg, args...)
}

func (ul *UserLog) PrintLineSeparator() {
	ul.PrintToUser("==============================================")
}

func ConvertToStringWithThousandSeparator(input uint64) string {
	p := message.NewPrinter(language.English)
	s := p.Sprintf("%d", input)
	return strings.ReplaceAll(s, ",", "_")
}
