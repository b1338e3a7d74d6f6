package fetchparse

// ParseAddressList decodes the inner text of an address list as returned by
// scanParenthesizedList. A tuple that fails to scan fails the whole list; a
// tuple without mailbox or host is skipped.
func ParseAddressList(inner string, present bool) ([]Address, error) {
	addrs := []Address{}
	if !present {
		return addrs, nil
	}
	rest := skipWhitespace(inner)
	for rest != "" {
		tuple, after, err := scanParenthesized(rest)
		if err != nil {
			return nil, err
		}
		addr, ok, err := parseAddress(tuple)
		if err != nil {
			return nil, err
		}
		if ok {
			addrs = append(addrs, addr)
		}
		rest = skipWhitespace(after)
	}
	return addrs, nil
}

// parseAddress scans personal, source route, mailbox and host.
func parseAddress(tuple string) (Address, bool, error) {
	personal, _, rest, err := scanQuotedOrNil(tuple)
	if err != nil {
		return Address{}, false, err
	}
	if _, _, rest, err = scanQuotedOrNil(rest); err != nil {
		return Address{}, false, err
	}
	mailbox, hasMailbox, rest, err := scanQuotedOrNil(rest)
	if err != nil {
		return Address{}, false, err
	}
	host, hasHost, _, err := scanQuotedOrNil(rest)
	if err != nil {
		return Address{}, false, err
	}
	if !hasMailbox || !hasHost {
		return Address{}, false, nil
	}
	return Address{Personal: personal, MailboxName: mailbox, HostName: host}, true, nil
}
