package utils

// ForkSyncArt is the CLI startup banner.
const ForkSyncArt = `
 ___            _    ___
| __| ___  _ _ | |__/ __| _  _  _ _   __
| _| / _ \| '_|| / /\__ \| || || ' \ / _|
|_|  \___/|_|  |_\_\|___/ \_, ||_||_|\__|
                          |__/`
