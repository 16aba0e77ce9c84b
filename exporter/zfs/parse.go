package zfs

import (
	"strconv"
	"strings"
)

// poolColumns is the -o argument for zpool list; parsePoolList depends on the order.
const poolColumns = "name,size,alloc,free,frag,health,dedupratio,readonly"

// datasetColumns is the -o argument for zfs list; parseDatasetList depends on the order.
const datasetColumns = "name,type,used,avail,refer,compressratio"

// parsePoolList parses `zpool list -H -p -o <poolColumns>`.
//
//	tank	1000000000000	400000000000	600000000000	12	ONLINE	1.00	off
func parsePoolList(out string) ([]Pool, error) {
	var pools []Pool
	for n, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 8 {
			return nil, parseError("zpool list line %d: expected 8 columns, got %d", n+1, len(fields))
		}

		p := Pool{Name: fields[0], Health: ParseHealth(fields[5])}
		var err error
		if p.SizeBytes, err = parseBytes(fields[1]); err != nil {
			return nil, parseError("zpool list %s: size: %v", p.Name, err)
		}
		if p.AllocatedBytes, err = parseBytes(fields[2]); err != nil {
			return nil, parseError("zpool list %s: alloc: %v", p.Name, err)
		}
		if p.FreeBytes, err = parseBytes(fields[3]); err != nil {
			return nil, parseError("zpool list %s: free: %v", p.Name, err)
		}
		if frag := strings.TrimSuffix(fields[4], "%"); frag != "-" {
			v, err := strconv.ParseFloat(frag, 64)
			if err != nil {
				return nil, parseError("zpool list %s: frag: %v", p.Name, err)
			}
			ratio := v / 100
			p.Fragmentation = &ratio
		}
		if p.DedupRatio, err = parseRatio(fields[6]); err != nil {
			return nil, parseError("zpool list %s: dedupratio: %v", p.Name, err)
		}
		p.ReadOnly = fields[7] == "on"
		pools = append(pools, p)
	}
	return pools, nil
}

type poolStatus struct {
	readErrors, writeErrors, checksumErrors uint64
	scrubActive                             bool
}

// parsePoolStatus extracts the pool-level error counters from `zpool status -p <pool>`.
// The counters of the row named after the pool are the totals of the whole vdev tree.
//
//	  pool: tank
//	 state: ONLINE
//	  scan: scrub in progress since Sun Oct 19 00:24:01 2026
//	config:
//
//		NAME        STATE     READ WRITE CKSUM
//		tank        ONLINE       0     0     0
//		  mirror-0  ONLINE       0     0     0
func parsePoolStatus(pool, out string) (poolStatus, error) {
	var st poolStatus
	inConfig := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if scan, ok := strings.CutPrefix(trimmed, "scan:"); ok {
			st.scrubActive = strings.Contains(scan, "scrub in progress")
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 5 && fields[0] == "NAME" && fields[2] == "READ" {
			inConfig = true
			continue
		}
		if !inConfig || len(fields) < 5 || fields[0] != pool {
			continue
		}
		var err error
		if st.readErrors, err = parseBytes(fields[2]); err != nil {
			return st, parseError("zpool status %s: read errors: %v", pool, err)
		}
		if st.writeErrors, err = parseBytes(fields[3]); err != nil {
			return st, parseError("zpool status %s: write errors: %v", pool, err)
		}
		if st.checksumErrors, err = parseBytes(fields[4]); err != nil {
			return st, parseError("zpool status %s: checksum errors: %v", pool, err)
		}
		return st, nil
	}
	return st, parseError("zpool status %s: pool row not found", pool)
}

// parseDatasetList parses `zfs list -H -p -o <datasetColumns>`.
//
//	tank/data	filesystem	1024	2048	512	1.50
func parseDatasetList(out string) ([]Dataset, error) {
	var datasets []Dataset
	for n, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			return nil, parseError("zfs list line %d: expected 6 columns, got %d", n+1, len(fields))
		}

		pool, _, _ := strings.Cut(fields[0], "/")
		d := Dataset{Name: fields[0], Pool: pool, Type: fields[1]}
		var err error
		if d.UsedBytes, err = parseBytes(fields[2]); err != nil {
			return nil, parseError("zfs list %s: used: %v", d.Name, err)
		}
		if d.AvailableBytes, err = parseBytes(fields[3]); err != nil {
			return nil, parseError("zfs list %s: avail: %v", d.Name, err)
		}
		if d.ReferencedBytes, err = parseBytes(fields[4]); err != nil {
			return nil, parseError("zfs list %s: refer: %v", d.Name, err)
		}
		if d.CompressionRatio, err = parseRatio(fields[5]); err != nil {
			return nil, parseError("zfs list %s: compressratio: %v", d.Name, err)
		}
		datasets = append(datasets, d)
	}
	return datasets, nil
}

func parseBytes(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}

// parseRatio accepts "1.50" and "1.50x".
func parseRatio(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "x"), 64)
}
