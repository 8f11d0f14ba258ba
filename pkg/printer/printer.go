package printer

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/angelmondragon/pos-terminal/pkg/config"
)

// Document is a receipt as delivered by the store backend.
type Document struct {
	Title string
	HTML  string
}

// Lines flattens the document markup.
func (d Document) Lines() ([]Line, error) {
	return RenderText(strings.NewReader(d.HTML))
}

// Printer hands receipts to a print device. Print returns once the job is
// accepted; onDone fires when the device reports completion, which some
// devices never do.
type Printer interface {
	Print(ctx context.Context, doc Document, onDone func()) error
	Close() error
}

// --- USB printer (writes to a device file, e.g. /dev/usb/lp0) ---

type usbPrinter struct {
	path  string
	width int
}

func NewUSBPrinter(devicePath string, charWidth int) Printer {
	return &usbPrinter{path: devicePath, width: charWidth}
}

func (p *usbPrinter) Print(_ context.Context, doc Document, onDone func()) error {
	data, err := escposFor(doc, p.width)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open USB device %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: write to USB device %s: %w", p.path, err)
	}
	notify(onDone)
	return nil
}

func (p *usbPrinter) Close() error {
	return nil
}

// --- Network printer (raw TCP, e.g. 192.168.1.100:9100) ---

type networkPrinter struct {
	address string
	timeout time.Duration
	width   int
}

func NewNetworkPrinter(address string, timeout time.Duration, charWidth int) Printer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &networkPrinter{address: address, timeout: timeout, width: charWidth}
}

func (p *networkPrinter) Print(ctx context.Context, doc Document, onDone func()) error {
	data, err := escposFor(doc, p.width)
	if err != nil {
		return err
	}
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("printer: connect to %s: %w", p.address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(2 * p.timeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: write to %s: %w", p.address, err)
	}
	notify(onDone)
	return nil
}

func (p *networkPrinter) Close() error {
	return nil
}

// --- Spool printer (pipes plain text into a command such as lp) ---

type spoolPrinter struct {
	command string
	args    []string
	width   int
}

// NewSpoolPrinter runs command per job with the receipt text on stdin.
func NewSpoolPrinter(command string, charWidth int) Printer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"lp"}
	}
	return &spoolPrinter{command: fields[0], args: fields[1:], width: charWidth}
}

// Print starts the spooler and returns; onDone fires only when it exits cleanly.
func (p *spoolPrinter) Print(_ context.Context, doc Document, onDone func()) error {
	lines, err := doc.Lines()
	if err != nil {
		return fmt.Errorf("printer: render receipt: %w", err)
	}
	text := FormatText(lines, p.width)
	if doc.Title != "" {
		text = doc.Title + "\n\n" + text
	}

	cmd := exec.Command(p.command, p.args...)
	cmd.Stdin = bytes.NewBufferString(text)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("printer: start %s: %w", p.command, err)
	}
	go func() {
		if err := cmd.Wait(); err == nil {
			notify(onDone)
		}
	}()
	return nil
}

func (p *spoolPrinter) Close() error {
	return nil
}

// --- Nop printer (no hardware configured) ---

type nopPrinter struct{}

// NewNop accepts every job and reports completion immediately.
func NewNop() Printer {
	return nopPrinter{}
}

func (nopPrinter) Print(_ context.Context, _ Document, onDone func()) error {
	notify(onDone)
	return nil
}

func (nopPrinter) Close() error {
	return nil
}

// New creates the printer selected by configuration.
func New(cfg config.PrinterConfig) (Printer, error) {
	switch cfg.NormalizedMode() {
	case config.PrinterModeUSB:
		if cfg.Device == "" {
			return nil, fmt.Errorf("printer: device path is required for usb mode")
		}
		return NewUSBPrinter(cfg.Device, cfg.CharWidth), nil
	case config.PrinterModeNetwork:
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required for network mode")
		}
		return NewNetworkPrinter(cfg.Address, cfg.DialTimeout, cfg.CharWidth), nil
	case config.PrinterModeSpool:
		return NewSpoolPrinter(cfg.SpoolCommand, cfg.CharWidth), nil
	case config.PrinterModeNone:
		return NewNop(), nil
	default:
		return nil, fmt.Errorf("printer: unknown mode %q (use none, network, usb or spool)", cfg.Mode)
	}
}

func escposFor(doc Document, width int) ([]byte, error) {
	lines, err := doc.Lines()
	if err != nil {
		return nil, fmt.Errorf("printer: render receipt: %w", err)
	}
	return FormatESCPOS(doc.Title, lines, width), nil
}

func notify(onDone func()) {
	if onDone != nil {
		onDone()
	}
}
