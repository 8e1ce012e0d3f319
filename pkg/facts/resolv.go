package facts

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ResolvConfPath is consulted for the domain when the host name is unqualified.
var ResolvConfPath = "/etc/resolv.conf"

// resolvDomain returns the "domain" entry of a resolv.conf, falling back to the
// first "search" entry. The last matching line wins, as with the resolver.
func resolvDomain(r io.Reader) string {
	var domain, search string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") || strings.HasPrefix(fields[0], ";") {
			continue
		}
		switch fields[0] {
		case "domain":
			domain = fields[1]
		case "search":
			search = fields[1]
		}
	}
	if domain != "" {
		return domain
	}
	return search
}

// hostNaming fills hostname, domain and fqdn facts.
func hostNaming(f Facts) error {
	name, err := os.Hostname()
	if err != nil {
		return err
	}
	host, domain, _ := strings.Cut(name, ".")
	if domain == "" {
		if file, err := os.Open(ResolvConfPath); err == nil {
			domain = resolvDomain(file)
			file.Close()
		}
	}

	f[FactHostname] = host
	if domain != "" {
		f[FactDomain] = domain
		f[FactFQDN] = host + "." + domain
	} else {
		f[FactFQDN] = host
	}
	return nil
}
