package util

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/songgao/water"
	"github.com/vishvananda/netlink"
)

// TunOptions configures a UE's per-PDU-session tunnel device.
type TunOptions struct {
	NamePrefix       string
	Psi              int
	Address          net.IP
	PrefixLen        int
	ConfigureRouting bool
}

// CreateTun allocates a character-device tunnel via songgao/water (the
// same library the teacher's session setup used) and configures its
// address, link state and (optionally) default route via
// vishvananda/netlink, following AlohaLuo-gnbsim-backup's addTunnel /
// addIPv4Address split between device creation and link configuration.
func CreateTun(opts TunOptions) (*water.Interface, error) {
	name := fmt.Sprintf("%s%d", opts.NamePrefix, opts.Psi)

	cfg := water.Config{DeviceType: water.TUN}
	cfg.Name = name

	iface, err := water.New(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "creating tun device %s", name)
	}

	link, err := netlink.LinkByName(iface.Name())
	if err != nil {
		return iface, errors.Wrapf(err, "looking up link %s", iface.Name())
	}

	addr := &netlink.Addr{IPNet: &net.IPNet{IP: opts.Address, Mask: net.CIDRMask(opts.PrefixLen, 32)}}
	if err := netlink.AddrAdd(link, addr); err != nil {
		return iface, errors.Wrapf(err, "adding address %s to %s", opts.Address, iface.Name())
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return iface, errors.Wrapf(err, "setting link %s up", iface.Name())
	}

	if opts.ConfigureRouting {
		route := &netlink.Route{LinkIndex: link.Attrs().Index, Dst: nil}
		if err := netlink.RouteAdd(route); err != nil {
			return iface, errors.Wrapf(err, "adding default route via %s", iface.Name())
		}
	}

	return iface, nil
}

// DestroyTun removes the interface's routes and address by deleting the
// link; the fd is released by the caller closing the water.Interface.
func DestroyTun(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return errors.Wrapf(err, "looking up link %s", name)
	}
	return netlink.LinkDel(link)
}
