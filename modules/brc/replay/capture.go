package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

// Source is a stream of captured frames.
//
// Both pcapgo.Reader and pcapgo.NgReader implement it.
type Source interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Sink receives forwarded frames.
type Sink interface {
	WritePacket(ci gopacket.CaptureInfo, data []byte) error
}

// InputFile is a capture file opened for reading.
type InputFile struct {
	Source
	file *os.File
}

// OpenFile opens a pcap or pcapng file, telling them apart by their magic.
func OpenFile(path string) (*InputFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	rd := bufio.NewReader(file)
	magic, err := rd.Peek(len(pcapngMagic))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read %q header: %w", path, err)
	}

	var src Source
	if bytes.Equal(magic, pcapngMagic) {
		src, err = pcapgo.NewNgReader(rd, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(rd)
	}
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	return &InputFile{
		Source: src,
		file:   file,
	}, nil
}

func (m *InputFile) Close() error {
	return m.file.Close()
}

// OutputFile is a pcap file opened for writing.
type OutputFile struct {
	*pcapgo.Writer
	buf  *bufio.Writer
	file *os.File
}

// CreateFile creates a pcap file for Ethernet frames of up to snapLen bytes.
func CreateFile(path string, snapLen uint32) (*OutputFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", path, err)
	}

	buf := bufio.NewWriter(file)
	wr := pcapgo.NewWriter(buf)
	if err := wr.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write %q header: %w", path, err)
	}

	return &OutputFile{
		Writer: wr,
		buf:    buf,
		file:   file,
	}, nil
}

// Close flushes buffered frames and closes the file.
func (m *OutputFile) Close() error {
	if err := m.buf.Flush(); err != nil {
		m.file.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}
	return m.file.Close()
}
