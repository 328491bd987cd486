package fragments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/vbanctl/internal/config"
)

const header = "# Generated by vbanctl. Edits are overwritten on the next apply.\n"

// RenderSend produces the module-vban-send fragment for s.
func RenderSend(s config.Send, host config.HostInfoEmulation) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("context.modules = [\n")
	b.WriteString("    {   name = libpipewire-module-vban-send\n")
	b.WriteString("        args = {\n")
	arg(&b, 3, "destination.ip", quote(s.DestinationIP))
	arg(&b, 3, "destination.port", strconv.Itoa(int(s.DestinationPort)))
	arg(&b, 3, "sess.name", quote(s.SessName))
	arg(&b, 3, "sess.media", quote(s.SessMedia))
	arg(&b, 3, "audio.format", quote(s.AudioFormat))
	arg(&b, 3, "audio.rate", strconv.FormatUint(uint64(s.AudioRate), 10))
	arg(&b, 3, "audio.channels", strconv.Itoa(int(s.AudioChannels)))
	if pos := channelPosition(s.AudioChannels); pos != "" {
		arg(&b, 3, "audio.position", pos)
	}
	b.WriteString("            stream.props = {\n")
	arg(&b, 4, "node.name", quote(s.NodeName))
	arg(&b, 4, "node.description", quote(s.NodeDescription))
	arg(&b, 4, "media.class", quote("Audio/Sink"))
	arg(&b, 4, "node.always-process", strconv.FormatBool(s.AlwaysProcess))
	hostProps(&b, host)
	b.WriteString("            }\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("]\n")
	return b.String()
}

// RenderRecv produces the module-vban-recv fragment for r.
func RenderRecv(r config.Recv, host config.HostInfoEmulation) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("context.modules = [\n")
	b.WriteString("    {   name = libpipewire-module-vban-recv\n")
	b.WriteString("        args = {\n")
	arg(&b, 3, "source.ip", quote(r.SourceIP))
	arg(&b, 3, "source.port", strconv.Itoa(int(r.SourcePort)))
	arg(&b, 3, "sess.latency.msec", strconv.FormatUint(uint64(r.LatencyMsec), 10))
	if name := strings.TrimSpace(r.StreamName); name != "" {
		arg(&b, 3, "sess.name", quote(name))
	}
	b.WriteString("            stream.props = {\n")
	arg(&b, 4, "node.name", quote(r.NodeName))
	arg(&b, 4, "node.description", quote(r.NodeDescription))
	arg(&b, 4, "media.class", quote("Audio/Source"))
	arg(&b, 4, "node.always-process", strconv.FormatBool(r.AlwaysProcess))
	hostProps(&b, host)
	b.WriteString("            }\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("]\n")
	return b.String()
}

func hostProps(b *strings.Builder, host config.HostInfoEmulation) {
	if !host.Enabled {
		return
	}
	arg(b, 4, "application.name", quote(host.AppName))
	arg(b, 4, "application.process.host", quote(host.HostName))
	arg(b, 4, "application.process.user", quote(host.UserName))
	arg(b, 4, "client.name", quote(host.ClientName))
}

func arg(b *strings.Builder, depth int, key, value string) {
	fmt.Fprintf(b, "%s%s = %s\n", strings.Repeat("    ", depth), key, value)
}

func quote(s string) string {
	return strconv.Quote(s)
}

func channelPosition(channels uint8) string {
	switch channels {
	case 1:
		return "[ MONO ]"
	case 2:
		return "[ FL FR ]"
	default:
		return ""
	}
}
