// Package netinfo discovers the addresses other machines on the LAN can
// use to reach the server.
package netinfo

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"syscall"

	"github.com/mdp/qrterminal/v3"
)

// Address is one reachable IPv4 address.
type Address struct {
	Interface string
	IP        net.IP
}

// Addresses lists the IPv4 addresses of all interfaces that are up,
// excluding loopback.
func Addresses() ([]Address, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}

	var out []Address
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, ipv4Addresses(iface.Name, addrs)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].IP) < rank(out[j].IP)
	})
	return out, nil
}

func ipv4Addresses(name string, addrs []net.Addr) []Address {
	var out []Address
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		ip4 := ip.To4()
		if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
			continue
		}
		out = append(out, Address{Interface: name, IP: ip4})
	}
	return out
}

// rank puts private LAN addresses ahead of anything else.
func rank(ip net.IP) int {
	if ip.IsPrivate() {
		return 0
	}
	return 1
}

// URLs renders base URLs for every address.
func URLs(addrs []Address, port string) []string {
	urls := make([]string, 0, len(addrs))
	for _, a := range addrs {
		urls = append(urls, "http://"+net.JoinHostPort(a.IP.String(), port))
	}
	return urls
}

// Half-block glyphs: each character cell carries two QR rows.
const (
	blackBlack = " "
	whiteBlack = "▀"
	whiteWhite = "█"
	blackWhite = "▄"
)

// PrintQR writes url as a terminal QR code.
func PrintQR(w io.Writer, url string) {
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      blackBlack,
		WhiteBlackChar: whiteBlack,
		WhiteChar:      whiteWhite,
		BlackWhiteChar: blackWhite,
		QuietZone:      1,
	})
}

// IsAddrInUse reports whether err came from binding a port that is taken.
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
